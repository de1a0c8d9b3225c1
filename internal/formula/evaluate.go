package formula

import "strings"

// Lookup возвращает значение переменной по её имени в верхнем регистре.
// Если значение определить нельзя, возвращает ошибку (обычно обёрнутую
// ErrUndefinedVariable).
type Lookup func(name string) (float64, error)

// precedence — таблица приоритетов бинарных операторов.
// Все операторы левоассоциативны.
var precedence = map[string]int{
	"+": 1,
	"-": 1,
	"*": 2,
	"/": 2,
}

// evaluator — состояние shunting-yard: стек операндов и стек операторов.
type evaluator struct {
	values []float64
	ops    []string
}

func (e *evaluator) push(v float64) {
	e.values = append(e.values, v)
}

func (e *evaluator) topOp() string {
	if len(e.ops) == 0 {
		return ""
	}
	return e.ops[len(e.ops)-1]
}

// reduce применяет верхний оператор к двум верхним операндам.
func (e *evaluator) reduce() *Error {
	op := e.ops[len(e.ops)-1]
	e.ops = e.ops[:len(e.ops)-1]

	n := len(e.values)
	left, right := e.values[n-2], e.values[n-1]
	e.values = e.values[:n-2]

	var result float64
	switch op {
	case "+":
		result = left + right
	case "-":
		result = left - right
	case "*":
		result = left * right
	case "/":
		if right == 0 {
			return &Error{Reason: ReasonDivisionByZero}
		}
		result = left / right
	}

	e.push(result)
	return nil
}

// Evaluate вычисляет формулу.
//
// Переменные разрешаются через lookup. Ошибки вычисления не прерывают
// вызывающего: деление на ноль и неразрешимая переменная возвращаются
// как *Error, в остальных случаях — число и nil.
func (f *Formula) Evaluate(lookup Lookup) (float64, *Error) {
	ev := &evaluator{
		values: make([]float64, 0, len(f.tokens)),
		ops:    make([]string, 0, len(f.tokens)),
	}

	for _, tok := range f.tokens {
		switch tok.Kind {
		case TokenNumber:
			v, _ := ParseNumber(tok.Text)
			ev.push(v)

		case TokenVariable:
			name := strings.ToUpper(tok.Text)
			if lookup == nil {
				return 0, &Error{Reason: reasonUndefinedVar + name}
			}
			v, err := lookup(name)
			if err != nil {
				return 0, &Error{Reason: reasonUndefinedVar + name}
			}
			ev.push(v)

		case TokenOperator:
			// Сначала сворачиваем всё, что связывает не слабее текущего
			for top := ev.topOp(); top != "" && top != "(" && precedence[top] >= precedence[tok.Text]; top = ev.topOp() {
				if evalErr := ev.reduce(); evalErr != nil {
					return 0, evalErr
				}
			}
			ev.ops = append(ev.ops, tok.Text)

		case TokenLParen:
			ev.ops = append(ev.ops, "(")

		case TokenRParen:
			for ev.topOp() != "(" {
				if evalErr := ev.reduce(); evalErr != nil {
					return 0, evalErr
				}
			}
			ev.ops = ev.ops[:len(ev.ops)-1]
		}
	}

	for len(ev.ops) > 0 {
		if evalErr := ev.reduce(); evalErr != nil {
			return 0, evalErr
		}
	}

	return ev.values[0], nil
}
