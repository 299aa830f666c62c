package report

import "github.com/dustin/go-humanize"

// Display limits used by the incident table.
const (
	DateWidth        = 10
	DescriptionWidth = 50
)

// FormatCurrency renders an amount as $1,234.50.
func FormatCurrency(v float64) string {
	if v < 0 {
		return "-$" + humanize.FormatFloat("#,###.##", -v)
	}
	return "$" + humanize.FormatFloat("#,###.##", v)
}

// TruncateDate keeps the YYYY-MM-DD prefix of a stored date.
func TruncateDate(s string) string {
	return prefix(s, DateWidth)
}

// TruncateText cuts s to n runes and marks the cut with "...".
func TruncateText(s string, n int) string {
	if len([]rune(s)) <= n {
		return s
	}
	return prefix(s, n) + "..."
}

func prefix(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
