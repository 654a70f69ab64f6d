package loader

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/ember-forge/pipeline/asset"
	"github.com/ember-forge/pipeline/assetmanager"
	"github.com/ember-forge/pipeline/importer"
	"github.com/ember-forge/pipeline/refl"
)

func writeTestPNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 0, A: 255})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func TestTextureLoaderLoadsImportedArtifact(t *testing.T) {
	dir := t.TempDir()
	imagePath := filepath.Join(dir, "brick.png")
	writeTestPNG(t, imagePath, 4, 4)

	storeDir := t.TempDir()
	store := importer.NewFileArtifactStore(storeDir)
	runner := importer.NewRunner(store)

	id := asset.NewId("brick")
	var imp importer.TextureImporter
	produced, ran, err := runner.RunImport(imp, imagePath, id, refl.DynObject{})
	if err != nil {
		t.Fatal(err)
	}
	if !ran || len(produced) != 1 {
		t.Fatalf("expected import to run, got ran=%v produced=%d", ran, len(produced))
	}
	assetId := produced[0].Id

	meta, ok := store.ReadMeta(assetId)
	if !ok {
		t.Fatal("expected meta to be written")
	}

	pack := assetmanager.NewFilesystemPack(storeDir)
	req := &assetmanager.LoadRequest{Id: assetId, Meta: meta, Pack: pack}

	var loader TextureLoader
	a, err := loader.Load(req)
	if err != nil {
		t.Fatal(err)
	}
	payload, ok := a.Payload.(*TexturePayload)
	if !ok {
		t.Fatalf("expected *TexturePayload, got %T", a.Payload)
	}
	if payload.Width != 4 || payload.Height != 4 {
		t.Fatalf("expected 4x4, got %dx%d", payload.Width, payload.Height)
	}
	if len(payload.Pixels) != 4*4*4 {
		t.Fatalf("expected %d pixel bytes, got %d", 4*4*4, len(payload.Pixels))
	}
}
