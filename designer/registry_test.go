package designer

import (
	"testing"

	"tienda-web/schedule"
	"tienda-web/stores/memory"

	"github.com/stretchr/testify/assert"
)

func TestRegistryTracksLatestPerVisitor(t *testing.T) {
	store := memory.NewStore()
	clock := schedule.NewVirtual(epoch)
	first := openSession(t, store, clock, nil, nil)
	second := openSession(t, store, clock, nil, nil)

	r := NewRegistry()
	r.Add("a", first)
	r.Add("b", second)
	assert.Equal(t, 2, r.Count())
	assert.Same(t, second, r.ForVisitor("visitor-1"))

	assert.Same(t, second, r.Remove("b"))
	assert.Same(t, first, r.ForVisitor("visitor-1"))
	assert.Nil(t, r.Remove("b"))

	r.Remove("a")
	assert.Nil(t, r.ForVisitor("visitor-1"))
	assert.Zero(t, r.Count())
}
