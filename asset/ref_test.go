package asset

import (
	"testing"

	"github.com/ember-forge/pipeline/internal/status"
	"github.com/ember-forge/pipeline/refl"
)

var errNotFound = status.New(status.NoAsset, "asset not found")

type fakeResolver struct {
	assets map[Id]*Asset
	calls  int
}

func (f *fakeResolver) Resolve(id Id) (Ref, error) {
	f.calls++
	a, ok := f.assets[id]
	if !ok {
		return Ref{}, errNotFound
	}
	return NewRef(a), nil
}

func TestAssetRefResolveAndCache(t *testing.T) {
	id := NewId("tex/brick.png")
	a := NewAsset(id, refl.Intern("texture"), "pixels")
	resolver := &fakeResolver{assets: map[Id]*Asset{id: a}}

	ref := NewAssetRef[string](id)
	payload, strong, err := ref.Resolve(resolver)
	if err != nil {
		t.Fatal(err)
	}
	defer strong.Release()
	if *payload != "pixels" {
		t.Fatalf("unexpected payload %q", *payload)
	}

	// Second resolve should hit the cached weak handle, not call the
	// resolver again, since the first strong ref above keeps it alive.
	_, second, err := ref.Resolve(resolver)
	if err != nil {
		t.Fatal(err)
	}
	second.Release()

	if resolver.calls != 1 {
		t.Fatalf("expected 1 resolver call, got %d", resolver.calls)
	}
}

func TestAssetRefUnsetFails(t *testing.T) {
	ref := NewAssetRef[string](Invalid)
	if ref.IsSet() {
		t.Fatal("expected unset ref")
	}
	if _, _, err := ref.Resolve(&fakeResolver{}); err == nil {
		t.Fatal("expected error resolving an unset ref")
	}
}
