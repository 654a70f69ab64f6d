package refl

import "testing"

func TestInternIdentity(t *testing.T) {
	tests := [][2]string{
		{"foo", "foo"},
		{"bar", "baz"},
		{"", ""},
	}
	for _, tc := range tests {
		a, b := Intern(tc[0]), Intern(tc[1])
		want := tc[0] == tc[1]
		got := a.Equal(b)
		if got != want {
			t.Errorf("Intern(%q)==Intern(%q): got %v want %v", tc[0], tc[1], got, want)
		}
		if got && a.Id() != b.Id() {
			t.Errorf("equal strids must share an id")
		}
	}
}

func TestInternedStringRoundTrips(t *testing.T) {
	s := Intern("hud.ttf")
	if s.String() != "hud.ttf" {
		t.Fatalf("expected hud.ttf, got %q", s.String())
	}
}

func TestEmptySentinel(t *testing.T) {
	if !Empty.Equal(Intern("")) {
		t.Fatal("Empty must equal Intern(\"\")")
	}
}

func TestIsolatedPool(t *testing.T) {
	p := NewPool()
	a := InternIn(p, "x")
	b := Intern("x")
	if a.Equal(b) {
		t.Fatal("separate pools must not share interned entries")
	}
}
