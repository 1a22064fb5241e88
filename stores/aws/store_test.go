package aws

import "testing"

func TestItemKey(t *testing.T) {
	key, err := itemKey("01HV", "tshirt-design-draft")
	if err != nil {
		t.Fatalf("itemKey() failed: %v", err)
	}
	if key != "items/01HV/tshirt-design-draft" {
		t.Errorf("itemKey() = %q", key)
	}

	for _, bad := range [][2]string{{"", "k"}, {"v", ""}, {"v", ".."}, {"v", "a/b"}, {"../v", "k"}} {
		if _, err := itemKey(bad[0], bad[1]); err == nil {
			t.Errorf("itemKey(%q, %q) should fail", bad[0], bad[1])
		}
	}
}
