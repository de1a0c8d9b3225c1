// Package depgraph хранит двунаправленное отношение зависимостей
// между узлами (именами ячеек).
//
// Ребро (dependee, dependent) означает, что dependee должен быть
// вычислен раньше dependent. Рёбра — множество: повторное добавление
// ничего не меняет.
package depgraph

import (
	"slices"
)

// node — запись узла в арене.
type node struct {
	name string
	live bool

	// dependents — индексы узлов, которые зависят от этого узла.
	dependents map[int]struct{}

	// dependees — индексы узлов, от которых зависит этот узел.
	dependees map[int]struct{}
}

// Graph — граф зависимостей.
//
// Узлы лежат в арене (nodes) и адресуются индексом; index отображает
// имя узла в индекс. Узел без рёбер освобождается, его слот
// переиспользуется. Граф не потокобезопасен.
type Graph struct {
	nodes []node
	index map[string]int
	free  []int

	// size — число различных пар (dependee, dependent).
	size int
}

// New создаёт пустой граф.
func New() *Graph {
	return &Graph{
		nodes: make([]node, 0),
		index: make(map[string]int),
	}
}

// Size возвращает число рёбер в графе.
func (g *Graph) Size() int {
	return g.size
}

// Len возвращает число узлов, у которых есть хотя бы одно ребро.
func (g *Graph) Len() int {
	return len(g.index)
}

// HasDependents проверяет, есть ли у узла зависимые.
func (g *Graph) HasDependents(name string) bool {
	i, ok := g.index[name]
	return ok && len(g.nodes[i].dependents) > 0
}

// HasDependees проверяет, зависит ли узел от кого-нибудь.
func (g *Graph) HasDependees(name string) bool {
	i, ok := g.index[name]
	return ok && len(g.nodes[i].dependees) > 0
}

// Dependents возвращает отсортированные имена узлов, зависящих от name.
// Для неизвестного узла возвращает пустой слайс.
func (g *Graph) Dependents(name string) []string {
	i, ok := g.index[name]
	if !ok {
		return []string{}
	}
	return g.names(g.nodes[i].dependents)
}

// Dependees возвращает отсортированные имена узлов, от которых зависит name.
// Для неизвестного узла возвращает пустой слайс.
func (g *Graph) Dependees(name string) []string {
	i, ok := g.index[name]
	if !ok {
		return []string{}
	}
	return g.names(g.nodes[i].dependees)
}

// Add добавляет ребро dependee → dependent. Повторный вызов — no-op.
func (g *Graph) Add(dependee, dependent string) {
	from := g.acquire(dependee)
	to := g.acquire(dependent)
	g.link(from, to)
}

// Remove удаляет ребро dependee → dependent, если оно есть.
func (g *Graph) Remove(dependee, dependent string) {
	from, ok := g.index[dependee]
	if !ok {
		return
	}
	to, ok := g.index[dependent]
	if !ok {
		return
	}
	g.unlink(from, to)
	g.release(from)
	g.release(to)
}

// ReplaceDependents заменяет все исходящие рёбра name на рёбра
// к каждому элементу newDependents. Дубликаты схлопываются.
func (g *Graph) ReplaceDependents(name string, newDependents []string) {
	from := g.acquire(name)

	old := g.indices(g.nodes[from].dependents)
	for _, to := range old {
		g.unlink(from, to)
	}

	for _, dep := range newDependents {
		g.link(from, g.acquire(dep))
	}

	for _, to := range old {
		g.release(to)
	}
	g.release(from)
}

// ReplaceDependees заменяет все входящие рёбра name на рёбра
// от каждого элемента newDependees. Дубликаты схлопываются.
func (g *Graph) ReplaceDependees(name string, newDependees []string) {
	to := g.acquire(name)

	old := g.indices(g.nodes[to].dependees)
	for _, from := range old {
		g.unlink(from, to)
	}

	for _, dep := range newDependees {
		g.link(g.acquire(dep), to)
	}

	for _, from := range old {
		g.release(from)
	}
	g.release(to)
}

// acquire возвращает индекс узла, создавая его при необходимости.
func (g *Graph) acquire(name string) int {
	if i, ok := g.index[name]; ok {
		return i
	}

	n := node{
		name:       name,
		live:       true,
		dependents: make(map[int]struct{}),
		dependees:  make(map[int]struct{}),
	}

	var i int
	if len(g.free) > 0 {
		i = g.free[len(g.free)-1]
		g.free = g.free[:len(g.free)-1]
		g.nodes[i] = n
	} else {
		i = len(g.nodes)
		g.nodes = append(g.nodes, n)
	}

	g.index[name] = i
	return i
}

// release освобождает узел, если у него не осталось рёбер.
func (g *Graph) release(i int) {
	n := &g.nodes[i]
	if !n.live || len(n.dependents) > 0 || len(n.dependees) > 0 {
		return
	}
	delete(g.index, n.name)
	*n = node{}
	g.free = append(g.free, i)
}

// link добавляет ребро, если его ещё нет.
func (g *Graph) link(from, to int) {
	if _, exists := g.nodes[from].dependents[to]; exists {
		return // уже связаны
	}
	g.nodes[from].dependents[to] = struct{}{}
	g.nodes[to].dependees[from] = struct{}{}
	g.size++
}

// unlink удаляет ребро, если оно есть.
func (g *Graph) unlink(from, to int) {
	if _, exists := g.nodes[from].dependents[to]; !exists {
		return
	}
	delete(g.nodes[from].dependents, to)
	delete(g.nodes[to].dependees, from)
	g.size--
}

func (g *Graph) indices(set map[int]struct{}) []int {
	out := make([]int, 0, len(set))
	for i := range set {
		out = append(out, i)
	}
	return out
}

func (g *Graph) names(set map[int]struct{}) []string {
	out := make([]string, 0, len(set))
	for i := range set {
		out = append(out, g.nodes[i].name)
	}
	slices.Sort(out)
	return out
}
