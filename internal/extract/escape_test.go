package extract

import "testing"

func TestUnescapeLiteral(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain", "Hello", "Hello"},
		{"newline", `a\nb`, "a b"},
		{"carriage return", `a\rb`, "a b"},
		{"tab", `a\tb`, "a b"},
		{"parens", `f\(x\)`, "f(x)"},
		{"backslash", `C:\\dir`, `C:\dir`},
		{"escaped backslash before paren", `\\(`, `\(`},
		{"escaped backslash before n", `\\n`, `\n`},
		{"octal left alone", `\101`, `\101`},
		{"trailing backslash", `end\`, `end\`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertEqual(t, UnescapeLiteral(tt.raw), tt.want)
		})
	}
}

func TestEscapeRoundTrip(t *testing.T) {
	inputs := []string{
		"",
		"no specials",
		"(parenthesized)",
		`back\slash`,
		`\(`,
		`)\(\\`,
		`tricky \n stays literal`,
		`((()))\\\`,
	}
	for _, in := range inputs {
		if got := UnescapeLiteral(escapeLiteral(in)); got != in {
			t.Errorf("round trip of %q gave %q", in, got)
		}
	}
}
