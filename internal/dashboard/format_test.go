package dashboard

import "testing"

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "-"},
		{5, "5.00"},
		{1234.5, "1,234.50"},
		{1654238.45, "1,654,238.45"},
		{-987654.321, "-987,654.32"},
	}
	for _, tt := range tests {
		if got := FormatNumber(tt.in); got != tt.want {
			t.Errorf("FormatNumber(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatPct(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{2.5, "+2.50%"},
		{-3.75, "-3.75%"},
		{0, "0.00%"},
	}
	for _, tt := range tests {
		if got := FormatPct(tt.in); got != tt.want {
			t.Errorf("FormatPct(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatInt(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{-45000, "-45,000"},
	}
	for _, tt := range tests {
		if got := FormatInt(tt.in); got != tt.want {
			t.Errorf("FormatInt(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "-"},
		{"2026-08-27", "27 Aug 2026"},
		{"not-a-date", "not-a-date"},
	}
	for _, tt := range tests {
		if got := FormatDate(tt.in); got != tt.want {
			t.Errorf("FormatDate(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPadOrTrunc(t *testing.T) {
	if got := padOrTrunc("abc", 5); got != "abc  " {
		t.Errorf("pad: got %q", got)
	}
	if got := padOrTrunc("abcdef", 4); got != "abcd" {
		t.Errorf("trunc: got %q", got)
	}
	if got := padOrTrunc("abc", 0); got != "abc" {
		t.Errorf("zero width: got %q", got)
	}
}
