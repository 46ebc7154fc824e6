package ui

import (
	"strings"
	"testing"
)

func TestQuietModeToggle(t *testing.T) {
	defer SetQuietMode(false)

	if IsQuietMode() {
		t.Fatal("quiet mode should be off by default")
	}
	SetQuietMode(true)
	if !IsQuietMode() {
		t.Fatal("quiet mode should be on after SetQuietMode(true)")
	}
	SetQuietMode(false)
	if IsQuietMode() {
		t.Fatal("quiet mode should be off after SetQuietMode(false)")
	}
}

func TestColorFunctionsWrapText(t *testing.T) {
	cases := []struct {
		name  string
		fn    func(string) string
		color string
	}{
		{"cyan", Cyan, "\033[36m"},
		{"yellow", Yellow, "\033[33m"},
		{"red", Red, "\033[31m"},
		{"green", Green, "\033[32m"},
		{"magenta", Magenta, "\033[35m"},
		{"dim", Dim, "\033[2m"},
	}

	for _, tc := range cases {
		got := tc.fn("text")
		if !strings.HasPrefix(got, tc.color) {
			t.Errorf("%s: got %q, want prefix %q", tc.name, got, tc.color)
		}
		if !strings.HasSuffix(got, "\033[0m") {
			t.Errorf("%s: got %q, want reset suffix", tc.name, got)
		}
		if !strings.Contains(got, "text") {
			t.Errorf("%s: got %q, want original text", tc.name, got)
		}
	}
}
