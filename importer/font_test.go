package importer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ember-forge/pipeline/ioblob"
	"github.com/ember-forge/pipeline/refl"
)

const testFNT = `info face="Arial" size=32 bold=0 italic=0 charset="" unicode=1 stretchH=100 smooth=1 aa=1 padding=0,0,0,0 spacing=1,1
common lineHeight=38 base=30 scaleW=256 scaleH=256 pages=1 packed=0
page id=0 file="glyphs_0.png"
chars count=1
char id=65 x=0 y=0 width=16 height=16 xoffset=0 yoffset=0 xadvance=16 page=0 chnl=0
`

func TestFontImporterParsesBitmapFont(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "label.fnt")
	if err := os.WriteFile(path, []byte(testFNT), 0o644); err != nil {
		t.Fatal(err)
	}
	writeTestPNG(t, filepath.Join(dir, "glyphs_0.png"), 4, 4)

	ctx := NewContext()
	var imp FontImporter
	if err := imp.Import(ctx, path, refl.DynObject{}); err != nil {
		t.Fatal(err)
	}
	if len(ctx.Produced) != 2 {
		t.Fatalf("expected 2 produced assets (font + atlas page), got %d", len(ctx.Produced))
	}
	if len(ctx.Sources) != 2 {
		t.Fatalf("expected 2 recorded sources (.fnt + page png), got %d", len(ctx.Sources))
	}

	font := ctx.Produced[0]
	if font.Meta.Class != fontClassTag {
		t.Fatalf("expected font class, got %v", font.Meta.Class)
	}
	if len(font.Meta.Deps) != 1 {
		t.Fatalf("expected 1 dep (the atlas page), got %d", len(font.Meta.Deps))
	}

	c := font.Artifact.Cursor()
	kind, err := ioblob.ReadString(c, "kind")
	if err != nil || kind != "bitmap" {
		t.Fatalf("expected kind=bitmap, got %q (err %v)", kind, err)
	}
	lineHeight, err := ioblob.ReadInt32(c, "line_height")
	if err != nil || lineHeight != 38 {
		t.Fatalf("expected line_height 38, got %d (err %v)", lineHeight, err)
	}

	if !c.FindChild("glyphs") {
		t.Fatal("expected a glyphs list")
	}
	if !c.FirstChild() {
		t.Fatal("expected at least one glyph")
	}
	codepoint, err := ioblob.ReadInt32(c, "codepoint")
	if err != nil || codepoint != 65 {
		t.Fatalf("expected codepoint 65, got %d (err %v)", codepoint, err)
	}

	page := ctx.Produced[1]
	if page.Meta.Class != textureClassTag {
		t.Fatalf("expected atlas page to be a texture asset, got %v", page.Meta.Class)
	}
}

func TestFontImporterRejectsInvalidOutlineFont(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "label.ttf")
	if err := os.WriteFile(path, []byte("not a real sfnt file"), 0o644); err != nil {
		t.Fatal(err)
	}

	var imp FontImporter
	if err := imp.Import(NewContext(), path, refl.DynObject{}); err == nil {
		t.Fatal("expected an error for invalid SFNT data")
	}
}
