package ristretto

import (
	"testing"
	"time"
)

func TestSetIfAbsent(t *testing.T) {
	c, err := New[string]()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if !c.SetIfAbsent("resend:email:a@example.com", "1", 1, time.Minute) {
		t.Fatal("first SetIfAbsent() = false, want true")
	}
	if c.SetIfAbsent("resend:email:a@example.com", "1", 1, time.Minute) {
		t.Error("second SetIfAbsent() = true, want false")
	}
	if _, found := c.Get("resend:email:a@example.com"); !found {
		t.Error("Get() after SetIfAbsent() not found")
	}
}

func TestSetIfAbsentExpiry(t *testing.T) {
	c, err := New[string]()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if !c.SetIfAbsent("k", "1", 1, 20*time.Millisecond) {
		t.Fatal("first SetIfAbsent() = false, want true")
	}
	time.Sleep(50 * time.Millisecond)
	if !c.SetIfAbsent("k", "1", 1, time.Minute) {
		t.Error("SetIfAbsent() after TTL expiry = false, want true")
	}
}

func TestSetIfAbsentConcurrent(t *testing.T) {
	c, err := New[string]()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	const n = 16
	results := make(chan bool, n)
	for i := 0; i < n; i++ {
		go func() {
			results <- c.SetIfAbsent("contended", "1", 1, time.Minute)
		}()
	}

	stored := 0
	for i := 0; i < n; i++ {
		if <-results {
			stored++
		}
	}
	if stored != 1 {
		t.Errorf("%d concurrent SetIfAbsent() calls stored, want exactly 1", stored)
	}
}
