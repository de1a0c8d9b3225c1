package formula

import (
	"errors"
	"slices"
	"testing"
)

func TestTokens(t *testing.T) {
	tests := []struct {
		name     string
		expr     string
		expected []Token
	}{
		{
			name: "simple sum",
			expr: "1+x1",
			expected: []Token{
				{Kind: TokenNumber, Text: "1"},
				{Kind: TokenOperator, Text: "+"},
				{Kind: TokenVariable, Text: "x1"},
			},
		},
		{
			name: "whitespace discarded",
			expr: "  ( a12 *\t3.5e-6 ) ",
			expected: []Token{
				{Kind: TokenLParen, Text: "("},
				{Kind: TokenVariable, Text: "a12"},
				{Kind: TokenOperator, Text: "*"},
				{Kind: TokenNumber, Text: "3.5e-6"},
				{Kind: TokenRParen, Text: ")"},
			},
		},
		{
			name: "fused variables",
			expr: "x1y",
			expected: []Token{
				{Kind: TokenVariable, Text: "x1"},
				{Kind: TokenInvalid, Text: "y"},
			},
		},
		{
			name: "exponent number",
			expr: "2E5",
			expected: []Token{
				{Kind: TokenNumber, Text: "2E5"},
			},
		},
		{
			name:     "empty",
			expr:     "   ",
			expected: []Token{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := slices.Collect(Tokens(tt.expr))
			if got == nil {
				got = []Token{}
			}
			if !slices.Equal(got, tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestTokens_StopsEarly(t *testing.T) {
	count := 0
	for range Tokens("1+2+3+4") {
		count++
		if count == 2 {
			break
		}
	}
	if count != 2 {
		t.Errorf("expected iteration to stop after 2 tokens, got %d", count)
	}
}

func TestNew_Valid(t *testing.T) {
	valid := []string{
		"1",
		"x1",
		"(1)",
		"((x1))",
		"1+2*3",
		"(1 + 2) * 3",
		"a1/b2 - 3.5e-6",
		"2E5",
		".5 + 5.",
	}

	for _, expr := range valid {
		t.Run(expr, func(t *testing.T) {
			if _, err := New(expr); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name string
		expr string
	}{
		{"empty", ""},
		{"only spaces", "   "},
		{"leading operator", "+1"},
		{"trailing operator", "1+"},
		{"double operator", "1+*2"},
		{"operator after lparen", "(*1)"},
		{"lparen after number", "2(1)"},
		{"lparen after variable", "x1(1)"},
		{"lparen after rparen", "(1)(2)"},
		{"empty parens", "()"},
		{"rparen after operator", "(1+)"},
		{"unmatched rparen", "1)"},
		{"number after number", "1 2"},
		{"variable after number", "1 x1"},
		{"number after rparen", "(1)2"},
		{"unknown token", "1 + $"},
		{"bare letters", "abc"},
		{"fused variables", "x1y"},
		{"unmatched lparen", "((1)"},
		{"number out of range", "1e400*0"},
		{"overflow after variable", "A1+2e999"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := New(tt.expr)
			if err == nil {
				t.Fatalf("expected error, got formula %q", f)
			}
			if !errors.Is(err, ErrFormulaFormat) {
				t.Errorf("expected ErrFormulaFormat, got %v", err)
			}

			var fe *FormatError
			if !errors.As(err, &fe) {
				t.Fatalf("expected *FormatError, got %T", err)
			}
			if fe.Expr != tt.expr {
				t.Errorf("expected expr %q, got %q", tt.expr, fe.Expr)
			}
		})
	}
}

func TestFormula_String(t *testing.T) {
	tests := []struct {
		expr     string
		expected string
	}{
		{"x1 + y1", "X1+Y1"},
		{"5.0000", "5"},
		{"2e5", "200000"},
		{"( a1 * 2.50 )", "(A1*2.5)"},
		{"3.5e-6", "3.5E-06"},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			f := MustNew(tt.expr)
			if f.String() != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, f.String())
			}
		})
	}
}

func TestFormula_Equal(t *testing.T) {
	tests := []struct {
		a, b  string
		equal bool
	}{
		{"x1+y1", "X1+Y1", true},
		{"5.0", "5", true},
		{"x1 + 2e5", "X1+200000", true},
		{"x1+y1", "y1+x1", false},
		{"1+2", "1-2", false},
	}

	for _, tt := range tests {
		t.Run(tt.a+" vs "+tt.b, func(t *testing.T) {
			fa, fb := MustNew(tt.a), MustNew(tt.b)
			if fa.Equal(fb) != tt.equal {
				t.Errorf("expected Equal=%v", tt.equal)
			}
			if tt.equal && fa.Hash() != fb.Hash() {
				t.Error("equal formulas must have equal hashes")
			}
		})
	}

	var nilFormula *Formula
	if !nilFormula.Equal(nil) {
		t.Error("nil formulas should be equal")
	}
	if MustNew("1").Equal(nil) {
		t.Error("formula should not equal nil")
	}
}

func TestFormula_RoundTrip(t *testing.T) {
	exprs := []string{"x1 + y1*2", "(a1 - 3.5e-6) / B22", "1e21 + 0.000001", "2e5*(5.0000)", "1.7976931348623157e308*0"}

	for _, expr := range exprs {
		t.Run(expr, func(t *testing.T) {
			f := MustNew(expr)
			again, err := New(f.String())
			if err != nil {
				t.Fatalf("canonical form %q does not parse: %v", f.String(), err)
			}
			if !f.Equal(again) {
				t.Errorf("round trip changed formula: %q → %q", f, again)
			}
		})
	}
}

func TestFormula_Variables(t *testing.T) {
	f := MustNew("a1 + B2 * A1 - c3 / b2")
	got := f.Variables()
	expected := []string{"A1", "B2", "C3"}
	if !slices.Equal(got, expected) {
		t.Errorf("expected %v, got %v", expected, got)
	}

	if len(MustNew("1+2").Variables()) != 0 {
		t.Error("formula without variables should return empty slice")
	}
}

func TestIsVariable(t *testing.T) {
	tests := map[string]bool{
		"A1":   true,
		"xX21": true,
		"a":    false,
		"1A":   false,
		"A1B":  false,
		"":     false,
		"A_1":  false,
	}
	for s, expected := range tests {
		if IsVariable(s) != expected {
			t.Errorf("IsVariable(%q) = %v, expected %v", s, !expected, expected)
		}
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		input string
		value float64
		ok    bool
	}{
		{"5", 5, true},
		{" -2.5 ", -2.5, true},
		{"2e5", 200000, true},
		{".5", 0.5, true},
		{"NaN", 0, false},
		{"Inf", 0, false},
		{"0x10", 0, false},
		{"1e400", 0, false},
		{"-1e400", 0, false},
		{"1.7976931348623157e308", 1.7976931348623157e308, true},
		{"5a", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			v, ok := ParseNumber(tt.input)
			if ok != tt.ok {
				t.Fatalf("expected ok=%v, got %v", tt.ok, ok)
			}
			if ok && v != tt.value {
				t.Errorf("expected %v, got %v", tt.value, v)
			}
		})
	}
}
