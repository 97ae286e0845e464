package core

import (
	"sync"
	"testing"
	"time"
)

func TestSerialDispatcher_RunsInOrder(t *testing.T) {
	dispatcher := NewSerialDispatcher()
	var mu sync.Mutex
	var order []int
	for i := 0; i < 50; i++ {
		i := i
		dispatcher.Dispatch(func() {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		})
	}
	dispatcher.Close()

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 50 {
		t.Fatalf("expected all callbacks to run before close returns, got %d", len(order))
	}
	for i, value := range order {
		if value != i {
			t.Fatalf("expected submission order, got %v", order)
		}
	}
}

func TestSerialDispatcher_DropsAfterClose(t *testing.T) {
	dispatcher := NewSerialDispatcher()
	dispatcher.Close()
	ran := make(chan struct{}, 1)
	dispatcher.Dispatch(func() { ran <- struct{}{} })
	select {
	case <-ran:
		t.Fatalf("expected callback after close to be dropped")
	case <-time.After(20 * time.Millisecond):
	}
	dispatcher.Close()
}

func TestSerialDispatcher_CloseFromCallback(t *testing.T) {
	dispatcher := NewSerialDispatcher()
	gate := make(chan struct{})
	returned := make(chan struct{})
	var mu sync.Mutex
	var ran []string
	dispatcher.Dispatch(func() {
		<-gate
		dispatcher.Close()
		close(returned)
	})
	dispatcher.Dispatch(func() {
		mu.Lock()
		ran = append(ran, "queued")
		mu.Unlock()
	})
	close(gate)

	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatalf("expected close inside a callback to return")
	}
	dispatcher.Dispatch(func() {
		mu.Lock()
		ran = append(ran, "late")
		mu.Unlock()
	})
	dispatcher.Close()

	mu.Lock()
	defer mu.Unlock()
	if len(ran) != 1 || ran[0] != "queued" {
		t.Fatalf("expected only the callback queued before close, got %v", ran)
	}
}

func TestCompletion_FiresOnce(t *testing.T) {
	done := newCompletion(InlineDispatcher{})
	count := 0
	if !done.fire(func() { count++ }) {
		t.Fatalf("expected first fire to win")
	}
	if done.fire(func() { count++ }) {
		t.Fatalf("expected second fire to be ignored")
	}
	if count != 1 {
		t.Fatalf("expected exactly one callback, got %d", count)
	}
}
