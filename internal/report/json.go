package report

import (
	"encoding/json"
	"io"
)

// WriteJSON renders the report as indented JSON.
func (r *CloseReport) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
