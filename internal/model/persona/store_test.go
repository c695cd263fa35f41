package persona

import "testing"

func TestChooseExplicitPersona(t *testing.T) {
	store := NewMemoryStore(Seed())
	p, ok := Choose(store, "shop-owner", "abc")
	if !ok || p.ID != "shop-owner" {
		t.Fatalf("expected shop-owner, got %q (ok=%v)", p.ID, ok)
	}
}

func TestChooseUnknownFallsBackToFirst(t *testing.T) {
	store := NewMemoryStore(Seed())
	p, ok := Choose(store, "missing", "abc")
	if !ok || p.ID != "retired-teacher" {
		t.Fatalf("expected default persona, got %q", p.ID)
	}
}

func TestChooseAutoIsStablePerSession(t *testing.T) {
	store := NewMemoryStore(Seed())
	first, _ := Choose(store, AutoSelect, "session-42")
	for i := 0; i < 5; i++ {
		again, _ := Choose(store, AutoSelect, "session-42")
		if again.ID != first.ID {
			t.Fatalf("auto selection changed: %s -> %s", first.ID, again.ID)
		}
	}
}

func TestChooseEmptyStore(t *testing.T) {
	if _, ok := Choose(NewMemoryStore(nil), "", "x"); ok {
		t.Fatal("expected no persona from empty store")
	}
}
