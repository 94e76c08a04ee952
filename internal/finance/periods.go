package finance

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// weekLabelRe matches Odoo week group labels like "W01 2026" and
// "Week 1 2026".
var weekLabelRe = regexp.MustCompile(`(?i)W?(?:eek\s*)?(\d+)\s+(\d{4})`)

// parseWeekLabel extracts the ISO week number and year from an Odoo
// date:week group label.
func parseWeekLabel(label string) (week, year int, ok bool) {
	m := weekLabelRe.FindStringSubmatch(label)
	if m == nil {
		return 0, 0, false
	}
	week, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, 0, false
	}
	year, err = strconv.Atoi(m[2])
	if err != nil {
		return 0, 0, false
	}
	return week, year, true
}

// isoWeekStart returns the Monday of the given ISO week. January 4 is
// always inside ISO week 1.
func isoWeekStart(year, week int) time.Time {
	t := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	wd := int(t.Weekday())
	if wd == 0 {
		wd = 7
	}
	monday := t.AddDate(0, 0, 1-wd)
	return monday.AddDate(0, 0, (week-1)*7)
}

// dutchMonthNums maps the month tokens of Odoo's Dutch day labels to
// month numbers, with the deviating English abbreviations as fallback.
var dutchMonthNums = map[string]string{
	"jan": "01", "feb": "02", "mrt": "03", "apr": "04",
	"mei": "05", "jun": "06", "jul": "07", "aug": "08",
	"sep": "09", "okt": "10", "nov": "11", "dec": "12",
	"mar": "03", "may": "05", "oct": "10",
}

// parseDayLabel converts an Odoo date:day group label ("01 jan 2026")
// to an ISO date string.
func parseDayLabel(label string) (string, bool) {
	parts := strings.Fields(strings.ToLower(label))
	if len(parts) != 3 {
		return "", false
	}
	day := parts[0]
	if len(day) == 1 {
		day = "0" + day
	}
	key := parts[1]
	if len(key) > 3 {
		key = key[:3]
	}
	month, ok := dutchMonthNums[key]
	if !ok {
		return "", false
	}
	return parts[2] + "-" + month + "-" + day, true
}

var dutchMonthNames = [...]string{
	"Januari", "Februari", "Maart", "April", "Mei", "Juni",
	"Juli", "Augustus", "September", "Oktober", "November", "December",
}

// MonthName returns the Dutch name of a month, as shown on close
// reports.
func MonthName(m time.Month) string {
	return dutchMonthNames[m-1]
}
