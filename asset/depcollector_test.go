package asset

import "testing"

func TestDepCollectorDedupesAndIgnoresInvalid(t *testing.T) {
	d := NewDepCollector()
	d.Add(NewId("a"))
	d.Add(NewId("b"))
	d.Add(NewId("a"))
	d.Add(Invalid)

	deps := d.Deps()
	if len(deps) != 2 {
		t.Fatalf("expected 2 deps, got %d: %+v", len(deps), deps)
	}
	if !deps[0].Equal(NewId("a")) || !deps[1].Equal(NewId("b")) {
		t.Fatalf("unexpected dep order/content: %+v", deps)
	}
}
