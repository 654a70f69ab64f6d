package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ember-forge/pipeline/asset"
	"github.com/ember-forge/pipeline/assetmanager"
	"github.com/ember-forge/pipeline/importer"
	"github.com/ember-forge/pipeline/refl"
)

const testTriangleOBJ = `
v 0.0 0.0 0.0
v 1.0 0.0 0.0
v 0.0 1.0 0.0
vn 0.0 0.0 1.0
vt 0.0 0.0
vt 1.0 0.0
vt 0.0 1.0
f 1/1/1 2/2/1 3/3/1
`

func TestMeshLoaderLoadsImportedArtifact(t *testing.T) {
	dir := t.TempDir()
	objPath := filepath.Join(dir, "tri.obj")
	if err := os.WriteFile(objPath, []byte(testTriangleOBJ), 0o644); err != nil {
		t.Fatal(err)
	}

	storeDir := t.TempDir()
	store := importer.NewFileArtifactStore(storeDir)
	runner := importer.NewRunner(store)

	id := asset.NewId("tri")
	var imp importer.MeshImporter
	produced, _, err := runner.RunImport(imp, objPath, id, refl.DynObject{})
	if err != nil {
		t.Fatal(err)
	}
	assetId := produced[0].Id
	meta, _ := store.ReadMeta(assetId)

	pack := assetmanager.NewFilesystemPack(storeDir)
	req := &assetmanager.LoadRequest{Id: assetId, Meta: meta, Pack: pack}

	var loader MeshLoader
	a, err := loader.Load(req)
	if err != nil {
		t.Fatal(err)
	}
	payload, ok := a.Payload.(*MeshPayload)
	if !ok {
		t.Fatalf("expected *MeshPayload, got %T", a.Payload)
	}
	if len(payload.Vertices) != 3 {
		t.Fatalf("expected 3 vertices, got %d", len(payload.Vertices))
	}
	if len(payload.Indices) != 3 {
		t.Fatalf("expected 3 indices, got %d", len(payload.Indices))
	}
	if payload.Vertices[1].Position.X != 1.0 {
		t.Fatalf("expected second vertex X=1.0, got %v", payload.Vertices[1].Position.X)
	}
	if payload.Bounds.Max.X != 1.0 || payload.Bounds.Max.Y != 1.0 {
		t.Fatalf("unexpected bounds: %+v", payload.Bounds)
	}
}
