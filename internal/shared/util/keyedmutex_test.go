package util

import (
	"sync"
	"testing"
)

func TestKeyedMutexSerializesSameKey(t *testing.T) {
	var k KeyedMutex
	var wg sync.WaitGroup
	counter := 0
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := k.Lock("bid-1")
			defer unlock()
			v := counter
			counter = v + 1
		}()
	}
	wg.Wait()
	if counter != 50 {
		t.Fatalf("expected 50 increments, got %d", counter)
	}
	if k.Len() != 0 {
		t.Fatalf("expected lock table to be empty, got %d", k.Len())
	}
}

func TestKeyedMutexIndependentKeys(t *testing.T) {
	var k KeyedMutex
	unlockA := k.Lock("a")
	done := make(chan struct{})
	go func() {
		unlock := k.Lock("b")
		unlock()
		close(done)
	}()
	<-done
	if k.Len() != 1 {
		t.Fatalf("expected only key a to remain, got %d", k.Len())
	}
	unlockA()
	if k.Len() != 0 {
		t.Fatalf("expected empty lock table, got %d", k.Len())
	}
}
