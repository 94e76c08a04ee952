package export

import (
	"fmt"
	"html"
)

// blankHeader suppresses Chrome's default date/title header line.
const blankHeader = `<span></span>`

// FooterTemplate builds the running footer printed on every page. Chrome
// substitutes the pageNumber/totalPages spans while printing.
func FooterTemplate(title string) string {
	return fmt.Sprintf(
		`<div style="width:100%%;font-size:8pt;font-family:'Plus Jakarta Sans','Segoe UI',sans-serif;color:#6c6c7a;text-align:center;">`+
			`%s | Pagina <span class="pageNumber"></span> van <span class="totalPages"></span></div>`,
		html.EscapeString(title),
	)
}
