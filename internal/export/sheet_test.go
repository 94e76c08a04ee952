package export

import (
	"strings"
	"testing"

	"labops/internal/domain"
)

func TestSheets_EmbeddedInventory(t *testing.T) {
	all := Sheets()
	if len(all) < 3 {
		t.Fatalf("expected at least three embedded sheets, got %d", len(all))
	}

	seen := map[string]bool{}
	for _, s := range all {
		if s.CSS == "" {
			t.Fatalf("sheet %s has empty css", s.ID())
		}
		seen[s.ID()] = true
	}
	for _, id := range []string{"print-gids@v1", "print-gids@v2", "print-report@v1"} {
		if !seen[id] {
			t.Fatalf("expected embedded sheet %s, have %v", id, seen)
		}
	}
}

func TestLookupSheet_VersionSelection(t *testing.T) {
	latest, err := LookupSheet(GuideSheet)
	if err != nil {
		t.Fatalf("lookup latest: %v", err)
	}
	if latest.Version != 2 {
		t.Fatalf("expected newest guide sheet v2, got v%d", latest.Version)
	}

	v1, err := LookupSheet("print-gids@v1")
	if err != nil {
		t.Fatalf("lookup v1: %v", err)
	}
	if v1.Version != 1 {
		t.Fatalf("expected v1, got v%d", v1.Version)
	}

	if _, err := LookupSheet("print-gids@v9"); !domain.IsNotFound(err) {
		t.Fatalf("expected not_found for unknown version, got %v", err)
	}
	if _, err := LookupSheet("no-such-sheet"); !domain.IsNotFound(err) {
		t.Fatalf("expected not_found for unknown name, got %v", err)
	}
	if _, err := LookupSheet("print-gids@vx"); !domain.IsValidation(err) {
		t.Fatalf("expected validation error for malformed ref, got %v", err)
	}
}

func TestDefaultSheet_FlattensTabbedLayout(t *testing.T) {
	s := DefaultSheet()
	if s.Name != GuideSheet {
		t.Fatalf("unexpected default sheet %s", s.ID())
	}

	rules := []string{
		".tab-content",
		".nav-tabs",
		".section-content",
		"print-color-adjust: exact",
		"break-inside: avoid",
		"#tab-operations",
		"#tab-reference",
		"page-break-before: always",
	}
	for _, rule := range rules {
		if !strings.Contains(s.CSS, rule) {
			t.Fatalf("expected guide sheet to contain %q", rule)
		}
	}
}

func TestParseSheetFilename(t *testing.T) {
	tests := []struct {
		in      string
		name    string
		version int
		ok      bool
	}{
		{"print-gids.v2.css", "print-gids", 2, true},
		{"print-report.v1.css", "print-report", 1, true},
		{"print-gids.css", "", 0, false},
		{"print-gids.v0.css", "", 0, false},
		{"print-gids.vx.css", "", 0, false},
		{"readme.txt", "", 0, false},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			name, version, ok := parseSheetFilename(tc.in)
			if ok != tc.ok || name != tc.name || version != tc.version {
				t.Fatalf("parseSheetFilename(%q) = %q, %d, %v", tc.in, name, version, ok)
			}
		})
	}
}
