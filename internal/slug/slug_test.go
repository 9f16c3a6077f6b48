package slug

import "testing"

func TestGenerate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "simple", input: "Studio Bella", want: "studio-bella"},
		{name: "accents", input: "Café da Ana, Pinheiros", want: "cafe-da-ana-pinheiros"},
		{name: "punctuation", input: "  Loja -- Top!! ", want: "loja-top"},
		{name: "tabs and newlines", input: "a\tb\nc", want: "a-b-c"},
		{name: "empty", input: "   ", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Generate(tt.input); got != tt.want {
				t.Errorf("Generate(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestGenerate_Truncates(t *testing.T) {
	got := Generate("abcdefghij abcdefghij abcdefghij abcdefghij abcdefghij")
	if len(got) > 40 {
		t.Fatalf("len = %d, want <= 40", len(got))
	}
	if !Valid(got) {
		t.Errorf("Generate produced invalid slug %q", got)
	}
}

func TestValid(t *testing.T) {
	cases := map[string]bool{
		"a":            true,
		"ab":           true,
		"minha-loja-2": true,
		"-loja":        false,
		"loja-":        false,
		"Loja":         false,
		"lo--ja":       false,
		"admin":        false,
		"":             false,
		"com espaco":   false,
		"acentuação":   false,
	}
	for in, want := range cases {
		if got := Valid(in); got != want {
			t.Errorf("Valid(%q) = %v, want %v", in, got, want)
		}
	}
}
