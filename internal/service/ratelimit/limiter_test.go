package ratelimit

import "testing"

func TestAllowConsumesCapacity(t *testing.T) {
	l := New()
	for i := 0; i < 3; i++ {
		if !l.Allow("k", 3, 0) {
			t.Fatalf("call %d should pass", i)
		}
	}
	if l.Allow("k", 3, 0) {
		t.Fatal("bucket should be empty")
	}
}

func TestAllowKeysAreIndependent(t *testing.T) {
	l := New()
	if !l.Allow("a", 1, 0) {
		t.Fatal("first key should pass")
	}
	if l.Allow("a", 1, 0) {
		t.Fatal("first key should be exhausted")
	}
	if !l.Allow("b", 1, 0) {
		t.Fatal("second key should be untouched")
	}
}
