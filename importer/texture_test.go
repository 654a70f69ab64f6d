package importer

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/ember-forge/pipeline/ioblob"
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
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestTextureImporterDecodesPNG(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "brick.png")
	writeTestPNG(t, path, 4, 4)

	ctx := NewContext()
	var imp TextureImporter
	settings := refl.NewDynObject(textureClassTag, TextureSettings{GenerateMips: true})
	if err := imp.Import(ctx, path, settings); err != nil {
		t.Fatal(err)
	}
	if len(ctx.Produced) != 1 {
		t.Fatalf("expected 1 produced asset, got %d", len(ctx.Produced))
	}
	if len(ctx.Sources) != 1 {
		t.Fatalf("expected 1 recorded source, got %d", len(ctx.Sources))
	}

	c := ctx.Produced[0].Artifact.Cursor()
	w, err := ioblob.ReadInt32(c, "width")
	if err != nil || w != 4 {
		t.Fatalf("expected width 4, got %d (err %v)", w, err)
	}
	mips, ok := c.ReadValue("mips")
	if !ok || !mips.Bool() {
		t.Fatal("expected mips=true to round trip")
	}
}
