package depgraph

import (
	"errors"
	"fmt"
	"slices"
	"testing"
)

func TestGraph_Empty(t *testing.T) {
	g := New()

	if g.Size() != 0 {
		t.Errorf("expected size 0, got %d", g.Size())
	}
	if len(g.Dependents("A1")) != 0 || len(g.Dependees("A1")) != 0 {
		t.Error("unknown node should have no dependents or dependees")
	}
	if g.HasDependents("A1") || g.HasDependees("A1") {
		t.Error("unknown node should report no edges")
	}
}

func TestGraph_AddIdempotent(t *testing.T) {
	g := New()

	g.Add("A1", "B1")
	g.Add("A1", "B1")

	if g.Size() != 1 {
		t.Errorf("expected size 1, got %d", g.Size())
	}
	if !slices.Equal(g.Dependents("A1"), []string{"B1"}) {
		t.Errorf("unexpected dependents: %v", g.Dependents("A1"))
	}
	if !slices.Equal(g.Dependees("B1"), []string{"A1"}) {
		t.Errorf("unexpected dependees: %v", g.Dependees("B1"))
	}
	if !g.HasDependents("A1") || !g.HasDependees("B1") {
		t.Error("edge should be visible from both ends")
	}
}

func TestGraph_Remove(t *testing.T) {
	g := New()
	g.Add("A1", "B1")
	g.Add("A1", "C1")

	g.Remove("A1", "B1")
	g.Remove("A1", "B1") // повторное удаление — no-op
	g.Remove("X1", "Y1") // неизвестные узлы — no-op

	if g.Size() != 1 {
		t.Errorf("expected size 1, got %d", g.Size())
	}
	if !slices.Equal(g.Dependents("A1"), []string{"C1"}) {
		t.Errorf("unexpected dependents: %v", g.Dependents("A1"))
	}
	if g.HasDependees("B1") {
		t.Error("B1 should have no dependees after removal")
	}

	g.Remove("A1", "C1")
	if g.Size() != 0 || g.Len() != 0 {
		t.Errorf("expected empty graph, got size %d, len %d", g.Size(), g.Len())
	}
}

func TestGraph_ReplaceDependents(t *testing.T) {
	g := New()
	g.Add("A1", "B1")
	g.Add("A1", "C1")
	g.Add("X1", "C1")

	g.ReplaceDependents("A1", []string{"D1", "E1", "D1"})

	if !slices.Equal(g.Dependents("A1"), []string{"D1", "E1"}) {
		t.Errorf("unexpected dependents: %v", g.Dependents("A1"))
	}
	if g.HasDependees("B1") {
		t.Error("B1 should lose its dependee")
	}
	if !slices.Equal(g.Dependees("C1"), []string{"X1"}) {
		t.Errorf("unexpected dependees of C1: %v", g.Dependees("C1"))
	}
	if g.Size() != 3 {
		t.Errorf("expected size 3, got %d", g.Size())
	}
}

func TestGraph_ReplaceDependees(t *testing.T) {
	g := New()
	g.Add("A1", "C1")
	g.Add("B1", "C1")
	g.Add("C1", "D1")

	g.ReplaceDependees("C1", []string{"E1", "E1"})

	if !slices.Equal(g.Dependees("C1"), []string{"E1"}) {
		t.Errorf("unexpected dependees: %v", g.Dependees("C1"))
	}
	if !slices.Equal(g.Dependents("C1"), []string{"D1"}) {
		t.Error("outgoing edges must be untouched")
	}
	if g.HasDependents("A1") || g.HasDependents("B1") {
		t.Error("old dependees should lose their edges")
	}
	if g.Size() != 2 {
		t.Errorf("expected size 2, got %d", g.Size())
	}

	g.ReplaceDependees("C1", nil)
	if g.Size() != 1 {
		t.Errorf("expected size 1, got %d", g.Size())
	}
}

func TestGraph_ReplaceRestoresPreviousState(t *testing.T) {
	g := New()
	g.Add("A1", "C1")
	g.Add("B1", "C1")

	before := g.Dependees("C1")
	g.ReplaceDependees("C1", []string{"C1", "Z9"})
	g.ReplaceDependees("C1", before)

	if !slices.Equal(g.Dependees("C1"), []string{"A1", "B1"}) {
		t.Errorf("unexpected dependees: %v", g.Dependees("C1"))
	}
	if g.Size() != 2 {
		t.Errorf("expected size 2, got %d", g.Size())
	}
	if g.Len() != 3 {
		t.Errorf("expected 3 live nodes, got %d", g.Len())
	}
}

func TestGraph_SizeMatchesEdges(t *testing.T) {
	g := New()

	// Много операций — размер должен совпадать с фактическим числом рёбер
	for i := 0; i < 50; i++ {
		a := fmt.Sprintf("A%d", i%7)
		b := fmt.Sprintf("B%d", i%5)
		g.Add(a, b)
		if i%3 == 0 {
			g.Remove(a, b)
		}
		if i%11 == 0 {
			g.ReplaceDependents(a, []string{"C1", "C2"})
		}
	}

	count := 0
	for i := 0; i < 7; i++ {
		count += len(g.Dependents(fmt.Sprintf("A%d", i)))
	}
	if g.Size() != count {
		t.Errorf("size %d does not match edge count %d", g.Size(), count)
	}
}

func TestGraph_Order(t *testing.T) {
	// A1 → B1 → C1, A1 → C1, C1 → D1
	g := New()
	g.Add("A1", "B1")
	g.Add("A1", "C1")
	g.Add("B1", "C1")
	g.Add("C1", "D1")
	g.Add("X1", "D1")

	order, err := g.Order("A1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []string{"A1", "B1", "C1", "D1"}
	if !slices.Equal(order, expected) {
		t.Errorf("expected %v, got %v", expected, order)
	}
}

func TestGraph_OrderRespectsDependees(t *testing.T) {
	// Ромб: A1 → B1 → D1, A1 → C1 → D1, C1 → B1
	g := New()
	g.Add("A1", "B1")
	g.Add("A1", "C1")
	g.Add("B1", "D1")
	g.Add("C1", "D1")
	g.Add("C1", "B1")

	order, err := g.Order("A1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pos := make(map[string]int)
	for i, name := range order {
		pos[name] = i
	}
	if len(pos) != 4 || order[0] != "A1" {
		t.Fatalf("unexpected order: %v", order)
	}
	for _, n := range order {
		for _, dep := range g.Dependees(n) {
			if p, ok := pos[dep]; ok && p > pos[n] {
				t.Errorf("%s must come before %s in %v", dep, n, order)
			}
		}
	}
}

func TestGraph_OrderUnknownNode(t *testing.T) {
	g := New()

	order, err := g.Order("A1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(order, []string{"A1"}) {
		t.Errorf("expected [A1], got %v", order)
	}
}

func TestGraph_OrderCycle(t *testing.T) {
	tests := []struct {
		name  string
		edges [][2]string
		start string
	}{
		{"self loop", [][2]string{{"A1", "A1"}}, "A1"},
		{"two nodes", [][2]string{{"A1", "B1"}, {"B1", "A1"}}, "A1"},
		{"three nodes", [][2]string{{"A1", "B1"}, {"B1", "C1"}, {"C1", "A1"}}, "B1"},
		{"downstream cycle", [][2]string{{"A1", "B1"}, {"B1", "C1"}, {"C1", "B1"}}, "A1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New()
			for _, e := range tt.edges {
				g.Add(e[0], e[1])
			}

			_, err := g.Order(tt.start)
			if !errors.Is(err, ErrCycle) {
				t.Fatalf("expected ErrCycle, got %v", err)
			}

			var ce *CycleError
			if !errors.As(err, &ce) || ce.Node == "" {
				t.Errorf("expected *CycleError with node, got %v", err)
			}
		})
	}
}

func TestGraph_SlotReuse(t *testing.T) {
	g := New()
	g.Add("A1", "B1")
	g.Remove("A1", "B1")
	g.Add("C1", "D1")

	if len(g.nodes) != 2 {
		t.Errorf("expected freed slots to be reused, arena has %d nodes", len(g.nodes))
	}
	if !slices.Equal(g.Dependents("C1"), []string{"D1"}) {
		t.Errorf("unexpected dependents: %v", g.Dependents("C1"))
	}
	if g.HasDependents("A1") {
		t.Error("A1 should be gone")
	}
}
