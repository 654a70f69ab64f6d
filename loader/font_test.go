package loader

import (
	"testing"

	"golang.org/x/image/font/gofont/goregular"

	"github.com/ember-forge/pipeline/asset"
	"github.com/ember-forge/pipeline/assetmanager"
	"github.com/ember-forge/pipeline/importer"
	"github.com/ember-forge/pipeline/ioblob"
)

// testSFNTBytes returns a real, parseable SFNT font (the bundled Go Regular
// typeface) so outline-font decode tests don't need a hand-built TTF.
func testSFNTBytes(t *testing.T) []byte {
	t.Helper()
	return goregular.TTF
}

func writeFontArtifact(t *testing.T, store *importer.FileArtifactStore, id asset.Id, meta *asset.Meta, tree *ioblob.Tree) {
	t.Helper()
	data, err := importer.EncodeArtifact(tree, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Write(id, "main", data); err != nil {
		t.Fatal(err)
	}
	if err := store.WriteMeta(id, meta); err != nil {
		t.Fatal(err)
	}
}

func TestFontLoaderLoadsOutlineArtifact(t *testing.T) {
	storeDir := t.TempDir()
	store := importer.NewFileArtifactStore(storeDir)

	id := asset.NewId("title-face")
	tree := ioblob.CreateTree()
	c := tree.Cursor()
	c.WriteValue("kind", ioblob.StringValue("outline"))
	c.WriteValue("sfnt", ioblob.StringValue(string(testSFNTBytes(t))))

	meta := &asset.Meta{Version: 1, Class: FontClassTag, Loader: FontClassTag}
	writeFontArtifact(t, store, id, meta, tree)

	pack := assetmanager.NewFilesystemPack(storeDir)
	req := &assetmanager.LoadRequest{Id: id, Meta: meta, Pack: pack}

	var loader FontLoader
	a, err := loader.Load(req)
	if err != nil {
		t.Fatal(err)
	}
	payload, ok := a.Payload.(*FontPayload)
	if !ok {
		t.Fatalf("expected *FontPayload, got %T", a.Payload)
	}
	if payload.Kind != "outline" || payload.Outline == nil {
		t.Fatalf("expected a parsed outline font, got %+v", payload)
	}
}

func TestFontLoaderLoadsBitmapArtifact(t *testing.T) {
	storeDir := t.TempDir()
	store := importer.NewFileArtifactStore(storeDir)

	id := asset.NewId("hud-font")
	tree := ioblob.CreateTree()
	c := tree.Cursor()
	c.WriteValue("kind", ioblob.StringValue("bitmap"))
	c.WriteValue("face", ioblob.StringValue("HUD"))
	c.WriteValue("size", ioblob.Int32Value(16))
	c.WriteValue("line_height", ioblob.Int32Value(18))
	c.WriteValue("baseline", ioblob.Int32Value(14))

	c.AppendChild("pages", ioblob.KindList)
	pc := c.AppendChild("", ioblob.KindString)
	pc.Value = ioblob.StringValue("hud-font/page0")
	c.Pop()
	c.Pop()

	c.AppendChild("glyphs", ioblob.KindList)
	c.AppendChild("", ioblob.KindMap)
	c.WriteValue("codepoint", ioblob.Int32Value(65))
	c.WriteValue("x", ioblob.Int32Value(0))
	c.WriteValue("y", ioblob.Int32Value(0))
	c.WriteValue("width", ioblob.Int32Value(10))
	c.WriteValue("height", ioblob.Int32Value(12))
	c.WriteValue("xadvance", ioblob.Int32Value(11))
	c.WriteValue("xoffset", ioblob.Int32Value(0))
	c.WriteValue("yoffset", ioblob.Int32Value(0))
	c.WriteValue("page", ioblob.Int32Value(0))
	c.Pop()
	c.Pop()

	meta := &asset.Meta{Version: 1, Class: FontClassTag, Loader: FontClassTag}
	writeFontArtifact(t, store, id, meta, tree)

	pack := assetmanager.NewFilesystemPack(storeDir)
	req := &assetmanager.LoadRequest{Id: id, Meta: meta, Pack: pack}

	var loader FontLoader
	a, err := loader.Load(req)
	if err != nil {
		t.Fatal(err)
	}
	payload, ok := a.Payload.(*FontPayload)
	if !ok {
		t.Fatalf("expected *FontPayload, got %T", a.Payload)
	}
	if payload.Kind != "bitmap" || payload.Face != "HUD" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	if len(payload.Pages) != 1 || payload.Pages[0].Id().String() != "hud-font/page0" {
		t.Fatalf("unexpected pages: %+v", payload.Pages)
	}
	if len(payload.Glyphs) != 1 || payload.Glyphs[0].Codepoint != 65 || payload.Glyphs[0].XAdvance != 11 {
		t.Fatalf("unexpected glyphs: %+v", payload.Glyphs)
	}
}
