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

const testShaderSource = `
spaces:
  - name: per_frame
    bindings:
      - name: ViewProj
        kind: uniform_buffer
        type: mat4
techniques:
  - name: forward
    passes:
      - name: opaque
        vertex_attributes: ["position", "normal"]
sources:
  vertex: "// vertex stub"
  fragment: "// fragment stub"
`

func TestShaderLoaderDecodesReflectionArtifact(t *testing.T) {
	dir := t.TempDir()
	shaderPath := filepath.Join(dir, "lit.shader")
	if err := os.WriteFile(shaderPath, []byte(testShaderSource), 0o644); err != nil {
		t.Fatal(err)
	}

	storeDir := t.TempDir()
	store := importer.NewFileArtifactStore(storeDir)
	runner := importer.NewRunner(store)

	id := asset.NewId("lit")
	var imp importer.ShaderImporter
	produced, _, err := runner.RunImport(imp, shaderPath, id, refl.DynObject{})
	if err != nil {
		t.Fatal(err)
	}
	assetId := produced[0].Id
	meta, _ := store.ReadMeta(assetId)

	pack := assetmanager.NewFilesystemPack(storeDir)
	req := &assetmanager.LoadRequest{Id: assetId, Meta: meta, Pack: pack}

	var loader ShaderLoader
	a, err := loader.Load(req)
	if err != nil {
		t.Fatal(err)
	}
	payload, ok := a.Payload.(*ShaderPayload)
	if !ok {
		t.Fatalf("expected *ShaderPayload, got %T", a.Payload)
	}
	if payload.Cache == nil {
		t.Fatal("expected a fresh Cache to be attached")
	}
	tech, ok := payload.Reflection.Techniques["forward"]
	if !ok {
		t.Fatal("expected technique 'forward' to survive decode")
	}
	if _, ok := tech.PassByName("opaque"); !ok {
		t.Fatal("expected pass 'opaque' to survive decode")
	}
	if _, ok := payload.Reflection.ParamsId["ViewProj"]; !ok {
		t.Fatal("expected ViewProj param to be rebuilt")
	}
}
