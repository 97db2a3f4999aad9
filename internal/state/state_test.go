package state

import (
	"fmt"
	"sync"
	"testing"

	"github.com/rescale/svctray/internal/config"
)

func TestIgnoreSetOneShot(t *testing.T) {
	s := NewIgnoreSet()
	if !s.Add("svcA") {
		t.Fatal("first Add(svcA) = false, want true")
	}
	if s.Add("svcA") {
		t.Error("duplicate Add(svcA) = true, want false")
	}

	if s.Len() != 1 {
		t.Fatalf("Len() = %d after duplicate Add, want 1", s.Len())
	}
	if !s.Consume("svcA") {
		t.Fatal("first Consume(svcA) = false, want true")
	}
	if s.Consume("svcA") {
		t.Error("second Consume(svcA) = true, entry should be single-use")
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}
}

func TestIgnoreSetConsumeOnlyNamed(t *testing.T) {
	s := NewIgnoreSet()
	s.Add("svcA")
	s.Add("svcB")

	if s.Consume("svcC") {
		t.Error("Consume of absent name returned true")
	}
	if !s.Consume("svcB") {
		t.Error("Consume(svcB) = false")
	}
	if !s.Contains("svcA") || s.Contains("svcB") {
		t.Errorf("Names() = %v, want [svcA]", s.Names())
	}
}

func TestIgnoreSetConcurrent(t *testing.T) {
	s := NewIgnoreSet()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("svc%d", i%5)
			s.Add(name)
			s.Contains(name)
		}(i)
	}
	wg.Wait()

	if s.Len() != 5 {
		t.Errorf("Len() = %d, want 5", s.Len())
	}
	consumed := 0
	for i := 0; i < 5; i++ {
		if s.Consume(fmt.Sprintf("svc%d", i)) {
			consumed++
		}
	}
	if consumed != 5 || s.Len() != 0 {
		t.Errorf("consumed %d, remaining %d", consumed, s.Len())
	}
}

func TestContextOptionsSwap(t *testing.T) {
	first, err := config.Build(map[string]string{"name": "first"})
	if err != nil {
		t.Fatal(err)
	}
	second, err := config.Build(map[string]string{"name": "second"})
	if err != nil {
		t.Fatal(err)
	}

	c := NewContext(first)
	if c.Options() != first {
		t.Fatal("Options() did not return the initial options")
	}
	if c.Ignore == nil {
		t.Fatal("Ignore set not initialized")
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.SetOptions(second)
	}()
	wg.Wait()

	if c.Options() != second {
		t.Error("Options() did not observe the swap")
	}
}
