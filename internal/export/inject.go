package export

import "strings"

// InjectStyle embeds css as a <style> block in the document head so the
// print rules travel with the HTML into the renderer. Documents without a
// head tag get the block prepended.
func InjectStyle(html, css string) string {
	if strings.TrimSpace(css) == "" {
		return html
	}
	block := "<style>\n" + css + "\n</style>"
	lower := strings.ToLower(html)

	if at := headInsertionPoint(lower); at != -1 {
		return html[:at] + "\n" + block + html[at:]
	}
	if at := strings.Index(lower, "</head>"); at != -1 {
		return html[:at] + block + "\n" + html[at:]
	}
	return block + "\n" + html
}

// headInsertionPoint finds the offset just after the opening <head> tag,
// taking care not to match <header>.
func headInsertionPoint(lower string) int {
	search := 0
	for {
		i := strings.Index(lower[search:], "<head")
		if i == -1 {
			return -1
		}
		i += search
		rest := lower[i+len("<head"):]
		if len(rest) == 0 {
			return -1
		}
		switch rest[0] {
		case '>', ' ', '\t', '\n', '\r':
			if end := strings.IndexByte(rest, '>'); end != -1 {
				return i + len("<head") + end + 1
			}
			return -1
		}
		search = i + len("<head")
	}
}
