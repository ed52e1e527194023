package reactive

import (
	"sync"
	"testing"
)

func TestState_GetSet(t *testing.T) {
	state := NewState(42, nil)

	if got := state.Get(); got != 42 {
		t.Errorf("Expected initial value 42, got %d", got)
	}

	state.Set(100)
	if got := state.Get(); got != 100 {
		t.Errorf("Expected value 100 after Set, got %d", got)
	}
}

func TestState_Update(t *testing.T) {
	state := NewState(10, nil)

	state.Update(func(v int) int {
		return v * 2
	})

	if got := state.Get(); got != 20 {
		t.Errorf("Expected value 20 after Update, got %d", got)
	}
}

func TestState_Subscribe(t *testing.T) {
	state := NewState("hello", nil)

	var seen []string
	unsubscribe := state.Subscribe(func(v string) {
		seen = append(seen, v)
	})

	state.Set("world")
	state.Set("again")
	unsubscribe()
	state.Set("ignored")

	if len(seen) != 2 || seen[0] != "world" || seen[1] != "again" {
		t.Errorf("Expected [world again], got %v", seen)
	}
	if state.Subscribers() != 0 {
		t.Errorf("Expected 0 subscribers after unsubscribe, got %d", state.Subscribers())
	}
}

func TestStateFunc_SkipsEqualWrites(t *testing.T) {
	state := NewStateFunc("a", nil, Equal[string])

	calls := 0
	state.Subscribe(func(string) { calls++ })

	state.Set("a")
	state.Set("b")
	state.Set("b")

	if calls != 1 {
		t.Errorf("Expected 1 notification, got %d", calls)
	}
}

func TestState_ConcurrentAccess(t *testing.T) {
	state := NewState(0, nil)

	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(val int) {
			defer wg.Done()
			state.Set(val)
		}(i)
	}

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = state.Get()
		}()
	}

	wg.Wait()
}

func TestEffect_RunsOnDependencyChange(t *testing.T) {
	a := NewState(1, nil)
	b := NewState(2, nil)

	var sums []int
	effect := NewEffect(func() func() {
		sums = append(sums, a.Get()+b.Get())
		return nil
	}, a, b)

	a.Set(10)
	b.Set(20)

	want := []int{3, 12, 30}
	if len(sums) != len(want) {
		t.Fatalf("Expected %d runs, got %d (%v)", len(want), len(sums), sums)
	}
	for i := range want {
		if sums[i] != want[i] {
			t.Errorf("Run %d: expected %d, got %d", i, want[i], sums[i])
		}
	}
	if effect.Runs() != 3 {
		t.Errorf("Expected Runs() == 3, got %d", effect.Runs())
	}
}

func TestEffect_CleanupOrder(t *testing.T) {
	state := NewState(0, nil)

	var log []string
	effect := NewEffect(func() func() {
		v := state.Get()
		log = append(log, "run")
		return func() {
			log = append(log, "cleanup")
			_ = v
		}
	}, state)

	state.Set(1)
	effect.Stop()
	state.Set(2)

	want := []string{"run", "cleanup", "run", "cleanup"}
	if len(log) != len(want) {
		t.Fatalf("Expected %v, got %v", want, log)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Errorf("Step %d: expected %s, got %s", i, want[i], log[i])
		}
	}
	if state.Subscribers() != 0 {
		t.Errorf("Expected stopped effect to unsubscribe, %d left", state.Subscribers())
	}
}

func TestEffect_ReentrantWriteRunsAgain(t *testing.T) {
	state := NewState(0, nil)

	effect := NewEffect(func() func() {
		if v := state.Get(); v < 3 {
			state.Set(v + 1)
		}
		return nil
	}, state)

	if got := state.Get(); got != 3 {
		t.Errorf("Expected state to settle at 3, got %d", got)
	}
	if effect.Runs() != 4 {
		t.Errorf("Expected 4 runs, got %d", effect.Runs())
	}
}

func TestBatch(t *testing.T) {
	rt := NewRuntime()
	a := NewState(0, rt)
	b := NewState(0, rt)

	effect := NewEffect(func() func() {
		_ = a.Get() + b.Get()
		return nil
	}, a, b)

	rt.Batch(func() {
		a.Set(1)
		b.Set(2)
		rt.Batch(func() {
			a.Set(3)
		})
		if effect.Runs() != 1 {
			t.Errorf("Expected no runs inside the batch, got %d", effect.Runs()-1)
		}
	})

	if effect.Runs() != 2 {
		t.Errorf("Expected one coalesced run after the batch, got %d", effect.Runs()-1)
	}
}
