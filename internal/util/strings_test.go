package util

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		width    int
		expected string
	}{
		{name: "short string unchanged", input: "Network", width: 10, expected: "Network"},
		{name: "exact width unchanged", input: "Network", width: 7, expected: "Network"},
		{name: "long route label cut", input: "Network Traffic Attack Types", width: 10, expected: "Network T…"},
		{name: "width of one is only the ellipsis", input: "traffic", width: 1, expected: "…"},
		{name: "zero width is only the ellipsis", input: "traffic", width: 0, expected: "…"},
		{name: "empty string unchanged", input: "", width: 0, expected: ""},
		{name: "wide characters count two columns", input: "日本語テスト", width: 5, expected: "日本…"},
		{name: "notification line cut", input: "* Login successful.", width: 8, expected: "* Login…"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Truncate(tt.input, tt.width)
			if got != tt.expected {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.input, tt.width, got, tt.expected)
			}
		})
	}
}

func TestTruncate_Styled(t *testing.T) {
	red := lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	styled := red.Render("192.168.0.10 blocked")

	got := Truncate(styled, 8)
	if w := lipgloss.Width(got); w > 8 {
		t.Errorf("styled result width %d exceeds 8", w)
	}
	if Truncate(styled, 40) != styled {
		t.Error("styled string that fits should be unchanged")
	}
}

func TestPadRight(t *testing.T) {
	tests := []struct {
		input string
		width int
		want  string
	}{
		{"ab", 5, "ab   "},
		{"abcdef", 4, "abc…"},
		{"abcd", 4, "abcd"},
	}
	for _, tt := range tests {
		if got := PadRight(tt.input, tt.width); got != tt.want {
			t.Errorf("PadRight(%q, %d) = %q, want %q", tt.input, tt.width, got, tt.want)
		}
	}
}
