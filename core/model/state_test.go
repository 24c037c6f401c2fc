package model

import (
	"sync"
	"testing"
)

func TestStateManagerLifecycle(t *testing.T) {
	sm := NewStateManager()

	if sm.IsFitted() {
		t.Error("new StateManager should not be fitted")
	}
	if err := sm.RequireFitted(); err == nil {
		t.Error("RequireFitted should fail before SetFitted")
	}

	sm.SetFitted()
	sm.SetDimensions(5, 100)

	if !sm.IsFitted() {
		t.Error("StateManager should be fitted after SetFitted")
	}
	if err := sm.RequireFitted(); err != nil {
		t.Errorf("RequireFitted failed after SetFitted: %v", err)
	}
	nf, ns := sm.GetDimensions()
	if nf != 5 || ns != 100 {
		t.Errorf("expected dimensions (5, 100), got (%d, %d)", nf, ns)
	}

	sm.Reset()
	if sm.IsFitted() {
		t.Error("StateManager should not be fitted after Reset")
	}
	nf, ns = sm.GetDimensions()
	if nf != 0 || ns != 0 {
		t.Errorf("expected zero dimensions after Reset, got (%d, %d)", nf, ns)
	}
}

func TestStateManagerConcurrentAccess(t *testing.T) {
	sm := NewStateManager()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			sm.SetFitted()
			sm.SetDimensions(3, 10)
		}()
		go func() {
			defer wg.Done()
			_ = sm.IsFitted()
			_, _ = sm.GetDimensions()
		}()
	}
	wg.Wait()

	if !sm.IsFitted() {
		t.Error("StateManager should be fitted after concurrent SetFitted calls")
	}
}
