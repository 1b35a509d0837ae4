package dashboard

import (
	"fmt"
	"strings"
	"time"
)

// FormatNumber formats a value with comma-grouped integer digits and two
// decimals, or "-" for zero values standing in for missing data.
func FormatNumber(v float64) string {
	if v == 0 {
		return "-"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	s := fmt.Sprintf("%.2f", v)
	dot := strings.IndexByte(s, '.')
	return sign(neg) + groupDigits(s[:dot]) + s[dot:]
}

// FormatPct formats a percent change as "+X.XX%" / "-X.XX%".
func FormatPct(v float64) string {
	if v > 0 {
		return fmt.Sprintf("+%.2f%%", v)
	}
	return fmt.Sprintf("%.2f%%", v)
}

// FormatInt formats an integer with comma separators.
func FormatInt(n int) string {
	neg := n < 0
	if neg {
		n = -n
	}
	return sign(neg) + groupDigits(fmt.Sprintf("%d", n))
}

// FormatDate renders an ISO date as "02 Jan 2006", or "-" when empty.
func FormatDate(iso string) string {
	if iso == "" {
		return "-"
	}
	t, err := time.Parse("2006-01-02", iso)
	if err != nil {
		return iso
	}
	return t.Format("02 Jan 2006")
}

func sign(neg bool) string {
	if neg {
		return "-"
	}
	return ""
}

func groupDigits(s string) string {
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	start := len(s) % 3
	if start > 0 {
		b.WriteString(s[:start])
	}
	for i := start; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
