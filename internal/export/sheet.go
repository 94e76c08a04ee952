package export

import (
	"embed"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"labops/internal/domain"
)

//go:embed styles/*.css
var styleFS embed.FS

// Sheet is a named, versioned print style resource. Sheets ship embedded in
// the binary; file names follow <name>.v<version>.css.
type Sheet struct {
	Name    string
	Version int
	CSS     string
}

// ID is the canonical reference for a sheet, e.g. "print-gids@v2".
func (s Sheet) ID() string { return fmt.Sprintf("%s@v%d", s.Name, s.Version) }

const (
	// GuideSheet flattens the interactive boekhouding gids for print.
	GuideSheet = "print-gids"
	// ReportSheet styles the maandafsluiting close report.
	ReportSheet = "print-report"
)

var sheets = mustLoadSheets()

func mustLoadSheets() []Sheet {
	entries, err := styleFS.ReadDir("styles")
	if err != nil {
		panic(fmt.Sprintf("export: embedded styles unreadable: %v", err))
	}

	var out []Sheet
	for _, e := range entries {
		name, version, ok := parseSheetFilename(e.Name())
		if !ok {
			continue
		}
		css, err := styleFS.ReadFile("styles/" + e.Name())
		if err != nil {
			panic(fmt.Sprintf("export: embedded sheet %s unreadable: %v", e.Name(), err))
		}
		out = append(out, Sheet{Name: name, Version: version, CSS: string(css)})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Version < out[j].Version
	})
	return out
}

func parseSheetFilename(filename string) (name string, version int, ok bool) {
	base, found := strings.CutSuffix(filename, ".css")
	if !found {
		return "", 0, false
	}
	i := strings.LastIndex(base, ".v")
	if i <= 0 {
		return "", 0, false
	}
	v, err := strconv.Atoi(base[i+2:])
	if err != nil || v <= 0 {
		return "", 0, false
	}
	return base[:i], v, true
}

// Sheets lists every embedded sheet, ordered by name and version.
func Sheets() []Sheet {
	out := make([]Sheet, len(sheets))
	copy(out, sheets)
	return out
}

// LookupSheet resolves a sheet reference: "print-gids" picks the newest
// version, "print-gids@v1" an exact one.
func LookupSheet(ref string) (Sheet, error) {
	name := ref
	version := 0
	if at := strings.LastIndex(ref, "@v"); at > 0 {
		v, err := strconv.Atoi(ref[at+2:])
		if err != nil || v <= 0 {
			return Sheet{}, domain.E(domain.KindValidation, "export", fmt.Sprintf("invalid sheet reference %q", ref), nil)
		}
		name, version = ref[:at], v
	}

	var best Sheet
	for _, s := range sheets {
		if s.Name != name {
			continue
		}
		if version != 0 {
			if s.Version == version {
				return s, nil
			}
			continue
		}
		if s.Version > best.Version {
			best = s
		}
	}
	if best.Version == 0 {
		return Sheet{}, domain.E(domain.KindNotFound, "export", fmt.Sprintf("unknown sheet %q", ref), nil)
	}
	return best, nil
}

// DefaultSheet is the current guide print sheet.
func DefaultSheet() Sheet {
	s, err := LookupSheet(GuideSheet)
	if err != nil {
		panic(err)
	}
	return s
}
