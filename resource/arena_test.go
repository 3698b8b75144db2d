package resource

import (
	"errors"
	"sync"
	"testing"
)

type dropCounter struct {
	drops int
}

func (d *dropCounter) Drop() { d.drops++ }

func TestArena_Basic(t *testing.T) {
	a := NewArena()

	h, err := a.Create(TypeClient, "term")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if h.IsNull() {
		t.Fatal("Expected non-null handle")
	}

	val, ok := a.Get(h)
	if !ok {
		t.Fatal("Get failed")
	}
	if val != "term" {
		t.Fatalf("Expected 'term', got %v", val)
	}

	val, ok = a.Drop(h)
	if !ok {
		t.Fatal("Drop failed")
	}
	if val != "term" {
		t.Fatalf("Expected 'term', got %v", val)
	}

	if _, ok := a.Get(h); ok {
		t.Fatal("Expected Get to fail after Drop")
	}
	if _, ok := a.Drop(h); ok {
		t.Fatal("Expected second Drop to fail")
	}
}

func TestArena_GenerationOnReuse(t *testing.T) {
	a := NewArena()

	h1, _ := a.Create(TypeClient, "first")
	a.Drop(h1)
	h2, _ := a.Create(TypeClient, "second")

	if h1.Index() != h2.Index() {
		t.Fatalf("Expected slot reuse, got index %d and %d", h1.Index(), h2.Index())
	}
	if h1 == h2 {
		t.Fatal("Reused slot must produce a different handle")
	}
	if h2.Generation() != h1.Generation()+1 {
		t.Fatalf("Expected generation %d, got %d", h1.Generation()+1, h2.Generation())
	}

	if _, ok := a.Get(h1); ok {
		t.Fatal("Stale handle resolved to the new occupant")
	}
	if v, ok := a.Get(h2); !ok || v != "second" {
		t.Fatalf("Get(h2) = %v, %v", v, ok)
	}
}

func TestArena_Typed(t *testing.T) {
	a := NewArena()

	h, _ := a.Create(TypeMonitor, "eDP-1")

	if _, ok := a.GetTyped(h, TypeMonitor); !ok {
		t.Fatal("GetTyped with correct type failed")
	}
	if _, ok := a.GetTyped(h, TypeClient); ok {
		t.Fatal("GetTyped with wrong type should fail")
	}
	typ, ok := a.Type(h)
	if !ok || typ != TypeMonitor {
		t.Fatalf("Type = %v, %v", typ, ok)
	}
}

func TestArena_Dropper(t *testing.T) {
	a := NewArena()
	d := &dropCounter{}

	h, _ := a.Create(TypeClient, d)
	a.Drop(h)
	if d.drops != 1 {
		t.Fatalf("Expected 1 drop, got %d", d.drops)
	}

	d2 := &dropCounter{}
	a.Create(TypeClient, d2)
	a.Close()
	if d2.drops != 1 {
		t.Fatalf("Expected Close to drop live value, got %d", d2.drops)
	}
}

func TestArena_Close(t *testing.T) {
	a := NewArena()
	a.Create(TypeClient, 1)

	if err := a.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}

	_, err := a.Create(TypeClient, 2)
	if !errors.Is(err, ErrClosed) {
		t.Fatal("Expected ErrClosed after Close")
	}
}

func TestArena_LenAndEach(t *testing.T) {
	a := NewArena()

	h1, _ := a.Create(TypeClient, "a")
	a.Create(TypeMonitor, "b")
	a.Create(TypeClient, "c")

	if a.Len() != 3 {
		t.Fatalf("Expected Len() == 3, got %d", a.Len())
	}

	a.Drop(h1)
	if a.Len() != 2 {
		t.Fatalf("Expected Len() == 2, got %d", a.Len())
	}

	var seen []Handle
	a.Each(func(h Handle, typ Type, value any) bool {
		seen = append(seen, h)
		return true
	})
	if len(seen) != 2 {
		t.Fatalf("Expected to iterate over 2 items, got %d", len(seen))
	}
	for _, h := range seen {
		if !a.Contains(h) {
			t.Fatalf("Each yielded non-live handle %s", h)
		}
	}

	count := 0
	a.Each(func(Handle, Type, any) bool {
		count++
		return false
	})
	if count != 1 {
		t.Fatalf("Expected early termination after 1 item, got %d", count)
	}
}

func TestArena_NullHandle(t *testing.T) {
	a := NewArena()

	if _, ok := a.Get(Null); ok {
		t.Fatal("Null should not resolve")
	}
	if _, ok := a.Drop(Null); ok {
		t.Fatal("Null should not drop")
	}
	if _, ok := a.Get(MakeHandle(999, 0)); ok {
		t.Fatal("Out of range handle should not resolve")
	}
	if !MakeHandle(0, 5).IsNull() {
		t.Fatal("Zero index must be null regardless of generation")
	}
}

func TestArena_Concurrent(t *testing.T) {
	a := NewArena()
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			h, _ := a.Create(TypeClient, id)
			a.Get(h)
			a.Drop(h)
		}(i)
	}

	wg.Wait()
	if a.Len() != 0 {
		t.Fatalf("Expected empty arena, got %d", a.Len())
	}
}

func TestHandle_String(t *testing.T) {
	tests := []struct {
		h    Handle
		want string
	}{
		{Null, "null"},
		{MakeHandle(3, 0), "3.0"},
		{MakeHandle(7, 2), "7.2"},
	}
	for _, tt := range tests {
		if got := tt.h.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
