package formula

import (
	"iter"
	"regexp"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// TokenKind — тип токена формулы.
type TokenKind int

// Типы токенов.
const (
	TokenInvalid TokenKind = iota
	TokenLParen
	TokenRParen
	TokenOperator
	TokenVariable
	TokenNumber
)

// String возвращает имя типа токена.
func (k TokenKind) String() string {
	switch k {
	case TokenLParen:
		return "LParen"
	case TokenRParen:
		return "RParen"
	case TokenOperator:
		return "Operator"
	case TokenVariable:
		return "Variable"
	case TokenNumber:
		return "Number"
	default:
		return "Invalid"
	}
}

// Token — лексема формулы.
type Token struct {
	Kind TokenKind
	Text string
}

const (
	variablePattern = `[a-zA-Z]+\d+`
	numberPattern   = `(?:\d+\.\d*|\d*\.\d+|\d+)(?:[eE][-+]?\d+)?`
)

// formulaLexer — правила в порядке приоритета.
// Правило Invalid ловит любой символ, который не подошёл ни под одно другое.
var formulaLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "LParen", Pattern: `\(`},
	{Name: "RParen", Pattern: `\)`},
	{Name: "Operator", Pattern: `[-+*/]`},
	{Name: "Variable", Pattern: variablePattern},
	{Name: "Number", Pattern: numberPattern},
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "Invalid", Pattern: `.`},
})

var (
	kindBySymbol   map[lexer.TokenType]TokenKind
	whitespaceType lexer.TokenType

	variableRe = regexp.MustCompile(`^` + variablePattern + `$`)
	numberRe   = regexp.MustCompile(`^[-+]?` + numberPattern + `$`)
)

func init() {
	symbols := formulaLexer.Symbols()
	whitespaceType = symbols["Whitespace"]
	kindBySymbol = map[lexer.TokenType]TokenKind{
		symbols["LParen"]:   TokenLParen,
		symbols["RParen"]:   TokenRParen,
		symbols["Operator"]: TokenOperator,
		symbols["Variable"]: TokenVariable,
		symbols["Number"]:   TokenNumber,
		symbols["Invalid"]:  TokenInvalid,
	}
}

// Tokens возвращает ленивую последовательность токенов выражения.
//
// Пробелы отбрасываются, пустых токенов не бывает. Нераспознанный
// символ выдаётся как TokenInvalid; проверку синтаксиса делает New.
func Tokens(expr string) iter.Seq[Token] {
	return func(yield func(Token) bool) {
		lex, err := formulaLexer.LexString("", expr)
		if err != nil {
			yield(Token{Kind: TokenInvalid, Text: expr})
			return
		}

		for {
			tok, err := lex.Next()
			if err != nil {
				// Остаток строки не удалось разобрать
				yield(Token{Kind: TokenInvalid, Text: expr})
				return
			}
			if tok.EOF() {
				return
			}
			if tok.Type == whitespaceType {
				continue
			}

			if !yield(Token{Kind: kindBySymbol[tok.Type], Text: tok.Value}) {
				return
			}
		}
	}
}

// IsVariable проверяет, что вся строка является именем переменной
// (одна или более букв, затем одна или более цифр).
func IsVariable(s string) bool {
	return variableRe.MatchString(s)
}

// ParseNumber разбирает числовой литерал (допускается знак и пробелы по краям).
// Возвращает false для всего, что не является числом в смысле формул:
// NaN, Inf, шестнадцатеричная запись и литералы вне диапазона float64
// (1e400) не принимаются.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if !numberRe.MatchString(s) {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// FormatNumber возвращает каноническую запись числа: общий формат
// без лишних нулей (5.0000 → 5, 2e5 → 200000).
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'G', -1, 64)
}
