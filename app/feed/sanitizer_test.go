package feed

import "testing"

func TestStripTags(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain text", "Hello world", "Hello world"},
		{"simple markup", "<p>Hello <b>world</b></p>", "Hello world"},
		{"entities", "<p>Fish &amp; chips</p>", "Fish & chips"},
		{"link", `Read <a href="https://example.com">more</a>.`, "Read more."},
		{"surrounding whitespace", "\n  <div>  text  </div>\n", "text"},
		{"empty", "", ""},
		{"whitespace only", "   ", ""},
		{"decomposed accent normalised", "Cafe\u0301", "Caf\u00e9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripTags(tt.input); got != tt.expected {
				t.Errorf("StripTags(%q) = %q, expected %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestUnwrapText(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"\na\nb\nc\n\nd\n", "\na b c\n\nd\n"},
		{"one line", "one line"},
		{"para one\nstill one\n\npara two", "para one still one\n\npara two"},
		{"", ""},
		{"\n", "\n"},
	}

	for _, tt := range tests {
		if got := UnwrapText(tt.input); got != tt.expected {
			t.Errorf("UnwrapText(%q) = %q, expected %q", tt.input, got, tt.expected)
		}
	}
}

func TestSanitizerRun(t *testing.T) {
	input := "<p>Price is $5\nper unit</p>"

	if got := NewSanitizer(false, false).Run(input); got != "Price is $5\nper unit" {
		t.Errorf("Unexpected plain result: %q", got)
	}
	if got := NewSanitizer(true, false).Run(input); got != "Price is $5 per unit" {
		t.Errorf("Unexpected unwrapped result: %q", got)
	}
	if got := NewSanitizer(false, true).Run(input); got != "Price is $5\nper unit" {
		t.Errorf("Expected Run to leave $ for EscapeMath, got %q", got)
	}
}

func TestSanitizerEscapeMath(t *testing.T) {
	content := "**[Cost of $x$](https://example.com)**\nPrice is $5"

	if got := NewSanitizer(false, false).EscapeMath(content); got != content {
		t.Errorf("Expected content unchanged without math mode, got %q", got)
	}

	expected := "**[Cost of $$x$$](https://example.com)**\nPrice is $$5"
	if got := NewSanitizer(false, true).EscapeMath(content); got != expected {
		t.Errorf("Expected %q, got %q", expected, got)
	}
}
