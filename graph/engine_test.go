package graph

import (
	"context"
	"errors"
	"testing"

	"github.com/martymcenroe/draftloop/graph/emit"
	"github.com/martymcenroe/draftloop/graph/store"
)

type testState struct {
	Values  []string `json:"values"`
	Counter int      `json:"counter"`
}

func testReducer(prev, delta testState) testState {
	prev.Values = append(prev.Values, delta.Values...)
	if delta.Counter > prev.Counter {
		prev.Counter = delta.Counter
	}
	return prev
}

func appendNode(value, next string) NodeFunc[testState] {
	return func(_ context.Context, s testState) NodeResult[testState] {
		result := NodeResult[testState]{Delta: testState{Values: []string{value}, Counter: s.Counter + 1}}
		if next == "" {
			result.Route = Stop()
		} else {
			result.Route = Goto(next)
		}
		return result
	}
}

func newTestEngine(t *testing.T, st store.Store[testState], opts ...Option) *Engine[testState] {
	t.Helper()
	return New(testReducer, st, emit.NewNullEmitter(), opts...)
}

func TestEngineRunSequential(t *testing.T) {
	st := store.NewMemStore[testState]()
	e := newTestEngine(t, st)

	if err := e.Add("a", appendNode("alpha", "b")); err != nil {
		t.Fatal(err)
	}
	if err := e.Add("b", appendNode("beta", "c")); err != nil {
		t.Fatal(err)
	}
	if err := e.Add("c", appendNode("gamma", "")); err != nil {
		t.Fatal(err)
	}
	if err := e.StartAt("a"); err != nil {
		t.Fatal(err)
	}

	final, err := e.Run(context.Background(), "run-1", testState{})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	want := []string{"alpha", "beta", "gamma"}
	if len(final.Values) != len(want) {
		t.Fatalf("values = %v, want %v", final.Values, want)
	}
	for i := range want {
		if final.Values[i] != want[i] {
			t.Errorf("values[%d] = %q, want %q", i, final.Values[i], want[i])
		}
	}

	history := st.History("run-1")
	if len(history) != 3 {
		t.Errorf("persisted %d steps, want 3", len(history))
	}
}

func TestEngineNodeError(t *testing.T) {
	st := store.NewMemStore[testState]()
	e := newTestEngine(t, st)

	nodeErr := errors.New("node exploded")
	_ = e.Add("a", NodeFunc[testState](func(_ context.Context, s testState) NodeResult[testState] {
		return NodeResult[testState]{Err: nodeErr}
	}))
	_ = e.StartAt("a")

	_, err := e.Run(context.Background(), "run-err", testState{})
	if !errors.Is(err, nodeErr) {
		t.Errorf("Run() error = %v, want wrapped %v", err, nodeErr)
	}
}

func TestEngineMaxSteps(t *testing.T) {
	st := store.NewMemStore[testState]()
	e := newTestEngine(t, st, WithMaxSteps(5))

	_ = e.Add("loop", NodeFunc[testState](func(_ context.Context, s testState) NodeResult[testState] {
		return NodeResult[testState]{Route: Goto("loop")}
	}))
	_ = e.StartAt("loop")

	_, err := e.Run(context.Background(), "run-loop", testState{})
	if !errors.Is(err, ErrMaxStepsExceeded) {
		t.Errorf("Run() error = %v, want ErrMaxStepsExceeded", err)
	}
}

func TestEngineNoRoute(t *testing.T) {
	st := store.NewMemStore[testState]()
	e := newTestEngine(t, st)

	_ = e.Add("a", NodeFunc[testState](func(_ context.Context, s testState) NodeResult[testState] {
		return NodeResult[testState]{} // zero route, no edges
	}))
	_ = e.StartAt("a")

	_, err := e.Run(context.Background(), "run-noroute", testState{})
	if !errors.Is(err, ErrNoRoute) {
		t.Errorf("Run() error = %v, want ErrNoRoute", err)
	}
}

func TestEngineEdgeRouting(t *testing.T) {
	st := store.NewMemStore[testState]()
	e := newTestEngine(t, st)

	_ = e.Add("a", NodeFunc[testState](func(_ context.Context, s testState) NodeResult[testState] {
		return NodeResult[testState]{Delta: testState{Counter: 1}} // fall through to edges
	}))
	_ = e.Add("big", appendNode("big", ""))
	_ = e.Add("small", appendNode("small", ""))
	_ = e.StartAt("a")

	_ = e.Connect("a", "big", func(s testState) bool { return s.Counter > 10 })
	_ = e.Connect("a", "small", nil)

	final, err := e.Run(context.Background(), "run-edges", testState{})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(final.Values) != 1 || final.Values[0] != "small" {
		t.Errorf("values = %v, want [small]", final.Values)
	}
}

func TestEngineResume(t *testing.T) {
	st := store.NewMemStore[testState]()
	e := newTestEngine(t, st)

	_ = e.Add("a", appendNode("alpha", "b"))
	_ = e.Add("b", appendNode("beta", ""))
	_ = e.StartAt("a")

	if _, err := e.Run(context.Background(), "run-resume", testState{}); err != nil {
		t.Fatal(err)
	}

	// Continue the finished run from node b; state and step numbering carry
	// over from persistence.
	final, err := e.Resume(context.Background(), "run-resume", "b")
	if err != nil {
		t.Fatalf("Resume() error: %v", err)
	}
	if len(final.Values) != 3 {
		t.Errorf("values = %v, want alpha,beta,beta", final.Values)
	}

	history := st.History("run-resume")
	if len(history) != 3 {
		t.Fatalf("persisted %d steps, want 3", len(history))
	}
	if history[2].Step != 3 {
		t.Errorf("resumed step = %d, want 3", history[2].Step)
	}
}

func TestEngineCheckpoint(t *testing.T) {
	st := store.NewMemStore[testState]()
	e := newTestEngine(t, st)

	_ = e.Add("a", appendNode("alpha", ""))
	_ = e.StartAt("a")

	if _, err := e.Run(context.Background(), "run-cp", testState{}); err != nil {
		t.Fatal(err)
	}
	if err := e.SaveCheckpoint(context.Background(), "run-cp", "cp-1"); err != nil {
		t.Fatalf("SaveCheckpoint() error: %v", err)
	}

	final, err := e.ResumeFromCheckpoint(context.Background(), "cp-1", "run-cp-2", "a")
	if err != nil {
		t.Fatalf("ResumeFromCheckpoint() error: %v", err)
	}
	if len(final.Values) != 2 {
		t.Errorf("values = %v, want two entries", final.Values)
	}
}

func TestEngineValidation(t *testing.T) {
	st := store.NewMemStore[testState]()

	t.Run("missing start node", func(t *testing.T) {
		e := newTestEngine(t, st)
		_ = e.Add("a", appendNode("x", ""))
		if _, err := e.Run(context.Background(), "r", testState{}); err == nil {
			t.Error("expected validation error without StartAt")
		}
	})

	t.Run("duplicate node", func(t *testing.T) {
		e := newTestEngine(t, st)
		_ = e.Add("a", appendNode("x", ""))
		if err := e.Add("a", appendNode("y", "")); err == nil {
			t.Error("expected duplicate node error")
		}
	})

	t.Run("start at unknown node", func(t *testing.T) {
		e := newTestEngine(t, st)
		if err := e.StartAt("ghost"); err == nil {
			t.Error("expected error for unknown start node")
		}
	})
}

func TestEngineContextCancellation(t *testing.T) {
	st := store.NewMemStore[testState]()
	e := newTestEngine(t, st)

	_ = e.Add("loop", NodeFunc[testState](func(_ context.Context, s testState) NodeResult[testState] {
		return NodeResult[testState]{Route: Goto("loop")}
	}))
	_ = e.StartAt("loop")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := e.Run(ctx, "run-cancel", testState{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}
