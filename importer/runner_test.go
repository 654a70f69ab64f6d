package importer

import (
	"path/filepath"
	"testing"

	"github.com/ember-forge/pipeline/asset"
	"github.com/ember-forge/pipeline/refl"
)

func TestRunnerSkipsReimportWhenSourceUnchanged(t *testing.T) {
	dir := t.TempDir()
	imagePath := filepath.Join(dir, "brick.png")
	writeTestPNG(t, imagePath, 2, 2)

	storeDir := t.TempDir()
	store := NewFileArtifactStore(storeDir)
	runner := NewRunner(store)

	id := asset.NewId("brick")
	settings := refl.NewDynObject(textureClassTag, TextureSettings{})

	var imp TextureImporter
	produced, ran, err := runner.RunImport(imp, imagePath, id, settings)
	if err != nil {
		t.Fatal(err)
	}
	if !ran || len(produced) != 1 {
		t.Fatalf("expected first run to import, got ran=%v produced=%d", ran, len(produced))
	}
	firstId := produced[0].Id

	_, ran, err = runner.RunImport(imp, imagePath, firstId, settings)
	if err != nil {
		t.Fatal(err)
	}
	if ran {
		t.Fatal("expected second run with unchanged source to be a cache hit")
	}
}

func TestRunnerReimportsWhenSourceChanges(t *testing.T) {
	dir := t.TempDir()
	imagePath := filepath.Join(dir, "brick.png")
	writeTestPNG(t, imagePath, 2, 2)

	storeDir := t.TempDir()
	store := NewFileArtifactStore(storeDir)
	runner := NewRunner(store)

	id := asset.NewId("brick")
	settings := refl.NewDynObject(textureClassTag, TextureSettings{})

	var imp TextureImporter
	produced, _, err := runner.RunImport(imp, imagePath, id, settings)
	if err != nil {
		t.Fatal(err)
	}
	firstId := produced[0].Id

	writeTestPNG(t, imagePath, 4, 4) // change the source content

	_, ran, err := runner.RunImport(imp, imagePath, firstId, settings)
	if err != nil {
		t.Fatal(err)
	}
	if !ran {
		t.Fatal("expected re-import after source content changed")
	}
}
