package services

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSheetNameSanitizes(t *testing.T) {
	got := sheetName("Plan: Q3/Q4 [draft]", 0)
	for _, bad := range []string{":", "/", "[", "]"} {
		if strings.Contains(got, bad) {
			t.Errorf("Sheet name %q still contains %q", got, bad)
		}
	}
	if !strings.HasSuffix(got, " (1)") {
		t.Errorf("Expected index suffix on %q", got)
	}

	if got := sheetName("", 4); got != "List 5" {
		t.Errorf("Expected fallback name for empty title, got %q", got)
	}
}

func TestSheetNameTruncatesOnRunes(t *testing.T) {
	got := sheetName(strings.Repeat("é", 40), 2)
	if len(got) > 31 {
		t.Errorf("Sheet name %q is %d bytes, Excel caps at 31", got, len(got))
	}
	if !utf8.ValidString(got) {
		t.Errorf("Sheet name %q is not valid UTF-8", got)
	}
	if !strings.HasSuffix(got, " (3)") {
		t.Errorf("Expected index suffix on %q", got)
	}
}

func TestSanitizeFilename(t *testing.T) {
	if got := sanitizeFilename("Q3 Roadmap"); got != "Q3-Roadmap" {
		t.Errorf("Expected Q3-Roadmap, got %q", got)
	}
	if got := sanitizeFilename("///"); got != "board" {
		t.Errorf("Expected fallback filename, got %q", got)
	}
}
