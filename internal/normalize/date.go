package normalize

import (
	"fmt"
	"strings"
	"time"
)

// Template date formats use the token style common to invoice tooling
// (dd/MM/yyyy HH:mm:ss). The tokens are converted to Go reference layouts
// once per parse; longest token wins at each position.
var dateTokens = []struct {
	token  string
	layout string
}{
	{"yyyy", "2006"},
	{"yy", "06"},
	{"MM", "01"},
	{"dd", "02"},
	{"HH", "15"},
	{"mm", "04"},
	{"ss", "05"},
}

// LayoutFor converts a template date format into a Go reference layout.
func LayoutFor(format string) string {
	var b strings.Builder
	b.Grow(len(format))
	for i := 0; i < len(format); {
		matched := false
		for _, t := range dateTokens {
			if strings.HasPrefix(format[i:], t.token) {
				b.WriteString(t.layout)
				i += len(t.token)
				matched = true
				break
			}
		}
		if !matched {
			b.WriteByte(format[i])
			i++
		}
	}
	return b.String()
}

// ParseDate parses date text under a template date format. Failure to parse
// under the stated format is an error for the caller to record; the value is
// never coerced to a placeholder.
func ParseDate(s, format string) (time.Time, error) {
	text := strings.TrimSpace(s)
	if text == "" {
		return time.Time{}, fmt.Errorf("empty date value")
	}
	if format == "" {
		format = "yyyy-MM-dd"
	}
	parsed, err := time.Parse(LayoutFor(format), text)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q does not match format %q: %w", s, format, err)
	}
	return parsed, nil
}
