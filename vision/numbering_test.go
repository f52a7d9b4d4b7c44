package vision

import "testing"

func TestStripNumbering(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"period", "1. Mitochondria produce ATP", "Mitochondria produce ATP"},
		{"colon", "3: Energy", "Energy"},
		{"spaced colon", "3 : Energy", "Energy"},
		{"paren", "12) Krebs cycle", "Krebs cycle"},
		{"indented", "   2. Glycolysis", "Glycolysis"},
		{"multi line", "1. First\n2. Second\nplain", "First\nSecond\nplain"},
		{"no marker", "Mitochondria produce ATP", "Mitochondria produce ATP"},
		{"number word", "42 is the answer", "42 is the answer"},
		{"empty", "", ""},
		{"keeps blank lines", "1. a\n\n2. b", "a\n\nb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripNumbering(tt.in); got != tt.want {
				t.Errorf("StripNumbering(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestStripNumberingPure(t *testing.T) {
	in := "1. once"
	first := StripNumbering(in)
	if in != "1. once" {
		t.Fatal("input modified")
	}
	if StripNumbering(in) != first {
		t.Error("not deterministic")
	}
}
