package importer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ember-forge/pipeline/ioblob"
	"github.com/ember-forge/pipeline/refl"
)

const testOBJ = `
v 0.0 0.0 0.0
v 1.0 0.0 0.0
v 0.0 1.0 0.0
vn 0.0 0.0 1.0
vt 0.0 0.0
vt 1.0 0.0
vt 0.0 1.0
f 1/1/1 2/2/1 3/3/1
`

func TestMeshImporterParsesTriangle(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tri.obj")
	if err := os.WriteFile(path, []byte(testOBJ), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx := NewContext()
	var imp MeshImporter
	if err := imp.Import(ctx, path, refl.NewDynObject(meshClassTag, MeshSettings{})); err != nil {
		t.Fatal(err)
	}
	if len(ctx.Produced) != 1 {
		t.Fatalf("expected 1 produced asset, got %d", len(ctx.Produced))
	}

	c := ctx.Produced[0].Artifact.Cursor()
	vc, err := ioblob.ReadInt32(c, "vertex_count")
	if err != nil || vc != 3 {
		t.Fatalf("expected 3 vertices, got %d (err %v)", vc, err)
	}
	ic, err := ioblob.ReadInt32(c, "index_count")
	if err != nil || ic != 3 {
		t.Fatalf("expected 3 indices, got %d (err %v)", ic, err)
	}
}

func TestMeshImporterRejectsEmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.obj")
	if err := os.WriteFile(path, []byte("# nothing here\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	var imp MeshImporter
	if err := imp.Import(NewContext(), path, refl.DynObject{}); err == nil {
		t.Fatal("expected error for a mesh with no geometry")
	}
}
