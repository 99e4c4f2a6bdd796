package form

import "strings"

const maxPhoneDigits = 10

// NormalizePhone keeps at most ten digits, dropping everything else.
func NormalizePhone(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r < '0' || r > '9' {
			continue
		}
		if b.Len() == maxPhoneDigits {
			break
		}
		b.WriteRune(r)
	}
	return b.String()
}

// FormatPhone renders stored digits as (###) ###-####, partially for
// shorter inputs.
func FormatPhone(digits string) string {
	d := NormalizePhone(digits)
	switch {
	case len(d) == 0:
		return ""
	case len(d) <= 3:
		return "(" + d
	case len(d) <= 6:
		return "(" + d[:3] + ") " + d[3:]
	default:
		return "(" + d[:3] + ") " + d[3:6] + "-" + d[6:]
	}
}
