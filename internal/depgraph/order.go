package depgraph

import (
	"cmp"
	"errors"
	"slices"
)

// ErrCycle — при обходе обнаружен цикл в зависимостях.
var ErrCycle = errors.New("cyclic dependency detected")

// CycleError — цикл с указанием узла, на котором он замкнулся.
type CycleError struct {
	Node string
}

// Error реализует интерфейс error.
func (e *CycleError) Error() string {
	return "cyclic dependency detected at " + e.Node
}

// Unwrap возвращает базовую ошибку.
func (e *CycleError) Unwrap() error {
	return ErrCycle
}

// Состояния узла при обходе в глубину.
const (
	unvisited = iota
	visiting
	visited
)

// Order возвращает порядок пересчёта: start и все узлы, транзитивно
// достижимые по рёбрам dependents, так что каждый узел идёт после
// всех своих dependees из этого подграфа. start всегда первый.
//
// Обход в глубину с пометкой "visiting": ребро в узел, который ещё
// на текущем пути, означает цикл — возвращается *CycleError.
func (g *Graph) Order(start string) ([]string, error) {
	i, ok := g.index[start]
	if !ok {
		return []string{start}, nil
	}

	state := make(map[int]int)
	post := make([]string, 0)

	var visit func(n int) error
	visit = func(n int) error {
		state[n] = visiting

		// Обходим в порядке имён, чтобы результат был детерминированным
		next := g.indices(g.nodes[n].dependents)
		slices.SortFunc(next, func(a, b int) int {
			return cmp.Compare(g.nodes[a].name, g.nodes[b].name)
		})

		for _, dep := range next {
			switch state[dep] {
			case visiting:
				return &CycleError{Node: g.nodes[dep].name}
			case unvisited:
				if err := visit(dep); err != nil {
					return err
				}
			}
		}

		state[n] = visited
		post = append(post, g.nodes[n].name)
		return nil
	}

	if err := visit(i); err != nil {
		return nil, err
	}

	slices.Reverse(post)
	return post, nil
}
