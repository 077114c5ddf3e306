package routes

import (
	"testing"

	"shikkha-content-platform/internal/config"
)

func TestTypeAllowed(t *testing.T) {
	cfg := &config.Config{
		AllowedTypes: []string{"image/jpeg", " image/png", "application/pdf"},
	}

	cases := []struct {
		mimeType string
		want     bool
	}{
		{"image/jpeg", true},
		{"image/png", true}, // list entries are trimmed
		{"application/pdf", true},
		{"image/webp", false},
		{"image/gif", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := typeAllowed(cfg, tc.mimeType); got != tc.want {
			t.Errorf("typeAllowed(%q) = %v, want %v", tc.mimeType, got, tc.want)
		}
	}
}

func TestImageExtensionTypes(t *testing.T) {
	if imageExtensionTypes[".jpg"] != "image/jpeg" || imageExtensionTypes[".jpeg"] != "image/jpeg" {
		t.Error("jpg extensions must map to image/jpeg")
	}
	if _, ok := imageExtensionTypes[".gif"]; ok {
		t.Error("gif is not an accepted upload extension")
	}
}
