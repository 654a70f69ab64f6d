package importer

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/ember-forge/pipeline/ioblob"
	"github.com/ember-forge/pipeline/refl"
)

type testNativeThing struct {
	Name  string
	Count int32
}

func TestNativeImporterRoundTrips(t *testing.T) {
	registry := refl.NewRegistry()
	tag := refl.Intern("test-thing")
	if err := registry.Register(&refl.ClassDesc{
		Tag:     tag,
		GoType:  reflect.TypeOf(testNativeThing{}),
		Factory: func() interface{} { return &testNativeThing{} },
		Fields: []refl.FieldDesc{
			{Name: "Name", Type: reflect.TypeOf("")},
			{Name: "Count", Type: reflect.TypeOf(int32(0))},
		},
	}); err != nil {
		t.Fatal(err)
	}
	registry.Build()

	dir := t.TempDir()
	path := filepath.Join(dir, "widget.native")
	yaml := "class: test-thing\nName: widget\nCount: 3\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx := NewContext()
	imp := NativeImporter{Registry: registry}
	if err := imp.Import(ctx, path, refl.DynObject{}); err != nil {
		t.Fatal(err)
	}
	if len(ctx.Produced) != 1 {
		t.Fatalf("expected 1 produced asset, got %d", len(ctx.Produced))
	}

	c := ctx.Produced[0].Artifact.Cursor()
	name, err := ioblob.ReadString(c, "Name")
	if err != nil || name != "widget" {
		t.Fatalf("expected Name=widget, got %q (err %v)", name, err)
	}
	count, err := ioblob.ReadInt32(c, "Count")
	if err != nil || count != 3 {
		t.Fatalf("expected Count=3, got %d (err %v)", count, err)
	}
}
