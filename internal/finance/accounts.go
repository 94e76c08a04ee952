// Package finance implements the LAB Groep dashboard datasets on top of
// the Odoo client: bank and rekening-courant balances, revenue and cost
// aggregates, open items, invoices and the VAT position. Every dataset
// loader is read-through cached in redis.
package finance

import "strings"

// Ledger code geography of the group's chart of accounts.
const (
	revenueLow  = "800000"
	revenueHigh = "900000"
	vatCodeLike = "15%"
)

// costRanges covers staff and overhead (4*), other operating costs (6*)
// and cost of sales (7*).
var costRanges = [][2]string{
	{"400000", "500000"},
	{"600000", "700000"},
	{"700000", "800000"},
}

// IsRC reports whether a bank journal is really a rekening-courant
// position with a group company rather than a bank account. Journals
// named R/C qualify, as do accounts in the 12xxxx (vordering op
// groepsmaatschappijen) and 14xxxx (schuld aan groepsmaatschappijen)
// ranges.
func IsRC(journalName, accountCode string) bool {
	return strings.Contains(journalName, "R/C") ||
		strings.Contains(journalName, "RC ") ||
		strings.HasPrefix(accountCode, "12") ||
		strings.HasPrefix(accountCode, "14")
}

// RCSide labels an intercompany account as receivable or payable.
func RCSide(accountCode string) string {
	if strings.HasPrefix(accountCode, "12") {
		return "Vordering"
	}
	return "Schuld"
}

// AccountCode extracts the ledger code from an Odoo account display name
// ("400000 Gross wages" -> "400000").
func AccountCode(display string) string {
	fields := strings.Fields(display)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
