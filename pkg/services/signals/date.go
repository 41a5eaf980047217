package signals

import "regexp"

var isoDatePrefix = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)

// NormalizeDate truncates an ISO-prefixed value to YYYY-MM-DD and returns
// anything else unchanged. It does not validate the calendar date.
func NormalizeDate(s string) string {
	if prefix := isoDatePrefix.FindString(s); prefix != "" {
		return prefix
	}
	return s
}
