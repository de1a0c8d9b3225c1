package formula

import (
	"hash/fnv"
	"strings"
)

// Formula — разобранное и проверенное инфиксное выражение.
//
// Допускаются числа, переменные (A1, xX21), операторы + - * / и скобки.
// Две формулы равны, если совпадают их канонические строки.
type Formula struct {
	tokens    []Token
	canonical string
}

// New разбирает и проверяет выражение.
//
// Возвращает *FormatError (errors.Is(err, ErrFormulaFormat)), если:
//   - выражение пустое
//   - оператор стоит первым, последним, после оператора или после "("
//   - "(" стоит после числа, переменной или ")"
//   - ")" стоит после оператора или "(", либо не имеет парной "("
//   - число или переменная стоит после числа, переменной или ")"
//   - встречен нераспознанный токен
//   - остались незакрытые скобки
func New(expr string) (*Formula, error) {
	tokens := make([]Token, 0, len(expr)/2+1)
	for tok := range Tokens(expr) {
		tokens = append(tokens, tok)
	}

	if err := validate(expr, tokens); err != nil {
		return nil, err
	}

	return &Formula{
		tokens:    tokens,
		canonical: canonicalize(tokens),
	}, nil
}

// MustNew разбирает выражение и паникует при ошибке.
// Используется только для тестов.
func MustNew(expr string) *Formula {
	f, err := New(expr)
	if err != nil {
		panic(err)
	}
	return f
}

// validate проверяет синтаксис по всей последовательности токенов.
func validate(expr string, tokens []Token) error {
	if len(tokens) == 0 {
		return newFormatError(expr, "", "formula must contain at least one token")
	}

	open := 0
	var prev *Token

	for i := range tokens {
		tok := &tokens[i]

		switch tok.Kind {
		case TokenOperator:
			if prev == nil || prev.Kind == TokenOperator || prev.Kind == TokenLParen {
				return newFormatError(expr, tok.Text,
					"operator cannot be first or follow an operator or '('")
			}

		case TokenLParen:
			if prev != nil && (prev.Kind == TokenNumber || prev.Kind == TokenVariable || prev.Kind == TokenRParen) {
				return newFormatError(expr, tok.Text,
					"'(' cannot follow a number, a variable or ')'")
			}
			open++

		case TokenRParen:
			if prev == nil || prev.Kind == TokenOperator || prev.Kind == TokenLParen {
				return newFormatError(expr, tok.Text,
					"')' cannot be first or follow an operator or '('")
			}
			if open == 0 {
				return newFormatError(expr, tok.Text, "unmatched ')'")
			}
			open--

		case TokenNumber, TokenVariable:
			if prev != nil && (prev.Kind == TokenNumber || prev.Kind == TokenVariable || prev.Kind == TokenRParen) {
				return newFormatError(expr, tok.Text,
					"a number or variable cannot follow a number, a variable or ')'")
			}
			if tok.Kind == TokenNumber {
				if _, ok := ParseNumber(tok.Text); !ok {
					return newFormatError(expr, tok.Text, "number out of range")
				}
			}

		default:
			return newFormatError(expr, tok.Text, "unrecognized token")
		}

		prev = tok
	}

	if prev.Kind == TokenOperator {
		return newFormatError(expr, prev.Text, "formula cannot end with an operator")
	}
	if open > 0 {
		return newFormatError(expr, "", "unmatched '('")
	}

	return nil
}

// canonicalize собирает каноническую строку: переменные в верхнем
// регистре, числа в общем формате, без пробелов.
func canonicalize(tokens []Token) string {
	var b strings.Builder
	for _, tok := range tokens {
		switch tok.Kind {
		case TokenVariable:
			b.WriteString(strings.ToUpper(tok.Text))
		case TokenNumber:
			v, _ := ParseNumber(tok.Text)
			b.WriteString(FormatNumber(v))
		default:
			b.WriteString(tok.Text)
		}
	}
	return b.String()
}

// String возвращает каноническую форму формулы.
func (f *Formula) String() string {
	return f.canonical
}

// Equal сравнивает формулы по канонической форме.
func (f *Formula) Equal(other *Formula) bool {
	if f == nil || other == nil {
		return f == other
	}
	return f.canonical == other.canonical
}

// Hash возвращает хэш канонической формы (FNV-1a).
// Равные формулы имеют равный хэш.
func (f *Formula) Hash() uint64 {
	h := fnv.New64a()
	h.Write([]byte(f.canonical))
	return h.Sum64()
}

// Variables возвращает различные имена переменных формулы
// в верхнем регистре, в порядке первого появления.
func (f *Formula) Variables() []string {
	seen := make(map[string]bool)
	vars := make([]string, 0)
	for _, tok := range f.tokens {
		if tok.Kind != TokenVariable {
			continue
		}
		name := strings.ToUpper(tok.Text)
		if seen[name] {
			continue
		}
		seen[name] = true
		vars = append(vars, name)
	}
	return vars
}

// Tokens возвращает копию токенов формулы.
func (f *Formula) Tokens() []Token {
	out := make([]Token, len(f.tokens))
	copy(out, f.tokens)
	return out
}
