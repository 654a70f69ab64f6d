package loader

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/ember-forge/pipeline/asset"
	"github.com/ember-forge/pipeline/assetmanager"
	"github.com/ember-forge/pipeline/importer"
	"github.com/ember-forge/pipeline/refl"
)

type testWidget struct {
	Name  string
	Count int32
}

func TestNativeLoaderRebuildsRegisteredInstance(t *testing.T) {
	registry := refl.NewRegistry()
	tag := refl.Intern("test-widget")
	if err := registry.Register(&refl.ClassDesc{
		Tag:     tag,
		GoType:  reflect.TypeOf(testWidget{}),
		Factory: func() interface{} { return &testWidget{} },
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
	yaml := "class: test-widget\nName: gizmo\nCount: 7\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	storeDir := t.TempDir()
	store := importer.NewFileArtifactStore(storeDir)
	runner := importer.NewRunner(store)

	id := asset.NewId("widget")
	imp := importer.NativeImporter{Registry: registry}
	produced, _, err := runner.RunImport(imp, path, id, refl.DynObject{})
	if err != nil {
		t.Fatal(err)
	}
	assetId := produced[0].Id
	meta, _ := store.ReadMeta(assetId)

	pack := assetmanager.NewFilesystemPack(storeDir)
	req := &assetmanager.LoadRequest{Id: assetId, Meta: meta, Pack: pack}

	loader := NativeLoader{Registry: registry}
	a, err := loader.Load(req)
	if err != nil {
		t.Fatal(err)
	}
	widget, ok := a.Payload.(*testWidget)
	if !ok {
		t.Fatalf("expected *testWidget, got %T", a.Payload)
	}
	if widget.Name != "gizmo" || widget.Count != 7 {
		t.Fatalf("unexpected widget: %+v", widget)
	}
}
