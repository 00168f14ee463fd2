// ABOUTME: Tests for version constants
// ABOUTME: Ensures version information reported to peers is well formed
package version

import (
	"strings"
	"testing"
)

func TestIdentity(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"Version", Version},
		{"Product", Product},
		{"Manufacturer", Manufacturer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value == "" {
				t.Fatal("empty")
			}
			if len(tt.value) > 100 {
				t.Errorf("unreasonably long: %d bytes", len(tt.value))
			}
			for _, placeholder := range []string{"TODO", "FIXME", "XXX", "placeholder"} {
				if tt.value == placeholder {
					t.Errorf("placeholder value %q", tt.value)
				}
			}
		})
	}
}

func TestVersionFormat(t *testing.T) {
	// Dotted semver without a leading v
	if strings.HasPrefix(Version, "v") || strings.Count(Version, ".") != 2 {
		t.Errorf("Version %q is not in major.minor.patch form", Version)
	}
}
