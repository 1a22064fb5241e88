package designer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"tienda-web/config"
	"tienda-web/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssets(t *testing.T) {
	assets, err := LoadAssets()
	require.NoError(t, err)

	require.Len(t, assets.Templates, 5)
	tpl, ok := assets.Template("cruz-radiante")
	require.True(t, ok)
	assert.Equal(t, "Cruz Radiante", tpl.Name)
	assert.Equal(t, "/templates/cruz-radiante.png", tpl.ImageURL)
	assert.Contains(t, tpl.Tags, "celestial")

	require.Len(t, assets.Colors, 4)
	assert.Equal(t, core.ShirtColor{Name: "Blanco", HexValue: "#FFFFFF", MockupURL: "/mockups/white-tshirt.png"}, assets.DefaultShirtColor())
	navy, ok := assets.Color("Azul Navy")
	require.True(t, ok)
	assert.Equal(t, "#001F3F", navy.HexValue)

	require.Len(t, assets.Fonts, 4)
	assert.Equal(t, "Work Sans", assets.DefaultFont().Family)
	assert.Equal(t, "Moderna Sans", assets.DefaultFont().Name)
}

func TestShareLink(t *testing.T) {
	contact := config.ContactConfig{WhatsAppPhone: "5491168585966", WhatsAppMessage: "Hola! Me interesa este producto:"}

	link := ShareLink(contact, "https://tienda.example/api/designer/exports/01HX")
	require.True(t, strings.HasPrefix(link, "https://wa.me/5491168585966?text="))

	u, err := url.Parse(link)
	require.NoError(t, err)
	text := u.Query().Get("text")
	assert.True(t, strings.HasPrefix(text, "Hola! Me interesa este producto:\n\n"))
	assert.True(t, strings.HasSuffix(text, "https://tienda.example/api/designer/exports/01HX"))
}

func TestProductInquiryLink(t *testing.T) {
	contact := config.ContactConfig{WhatsAppPhone: "5491168585966", WhatsAppMessage: "Hola!"}
	link := ProductInquiryLink(contact, core.Product{Name: "Remera Fe", Price: 15000}, "https://tienda.example/product/1")

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "Hola!\n\nRemera Fe\nPrecio: $15.000\n\nhttps://tienda.example/product/1", u.Query().Get("text"))
}

func TestFontLoader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.RawQuery, "Oswald") {
			http.Error(w, "gone", http.StatusGone)
			return
		}
		w.Write([]byte("@font-face{}"))
	}))
	defer server.Close()

	fonts := []core.Font{
		{Family: "Work Sans", WebfontURL: server.URL + "/css2?family=Work+Sans"},
		{Family: "Oswald", WebfontURL: server.URL + "/css2?family=Oswald"},
		{Family: "Sin URL"},
	}
	loader := NewFontLoader(server.Client())
	require.NoError(t, loader.Preload(context.Background(), fonts))

	assert.True(t, loader.IsLoaded("Work Sans"))
	assert.False(t, loader.IsLoaded("Oswald"))
	assert.False(t, loader.IsLoaded("Sin URL"))
}
