package importer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fzipp/bmfont"
	"golang.org/x/image/font/sfnt"

	"github.com/ember-forge/pipeline/asset"
	"github.com/ember-forge/pipeline/ioblob"
	"github.com/ember-forge/pipeline/refl"
)

// FontImporter handles both bitmap fonts (.fnt, via fzipp/bmfont, grounded
// on the teacher's engine/assets/loaders/bitmap_font.go) and outline fonts
// (.ttf, via golang.org/x/image/font/sfnt). Bitmap fonts declare a hidden
// atlas-texture child asset per page image (spec scenario S2, see
// Context.DeclareChild); outline fonts carry their raw SFNT bytes through
// as the artifact, which the loader parses, leaving glyph rasterization to
// the renderer.
type FontImporter struct{}

var fontClassTag = refl.Intern("font")

func (FontImporter) FileExtensions() []string { return []string{".fnt", ".ttf"} }

func (FontImporter) Version() int32 { return 1 }

func (FontImporter) Presets(path string) []Preset {
	presets := []Preset{{Name: "default", Template: refl.NewDynObject(fontClassTag, FontSettings{})}}
	for _, e := range loadPresetFragment(path) {
		atlasDir, _ := e.stringOption("atlas_dir")
		presets = append(presets, Preset{
			Name:     e.Name,
			Template: refl.NewDynObject(fontClassTag, FontSettings{AtlasDir: atlasDir}),
		})
	}
	return presets
}

type FontSettings struct {
	AtlasDir string // directory bitmap font page images are resolved relative to
}

func (FontImporter) CollectDependencies(ctx *Context, path string, settings refl.DynObject) error {
	return nil
}

func (f FontImporter) Import(ctx *Context, path string, settings refl.DynObject) error {
	if strings.EqualFold(filepath.Ext(path), ".ttf") {
		return f.importTTF(ctx, path, settings)
	}
	return f.importFNT(ctx, path, settings)
}

func (FontImporter) importTTF(ctx *Context, path string, settings refl.DynObject) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if _, err := sfnt.Parse(data); err != nil {
		return err
	}
	sum := sha256.Sum256(data)
	ctx.AddSource(path, hex.EncodeToString(sum[:]))

	tree := ioblob.CreateTree()
	c := tree.Cursor()
	c.WriteValue("kind", ioblob.StringValue("outline"))
	c.WriteValue("sfnt", ioblob.StringValue(string(data)))

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	meta := &asset.Meta{
		Version:     1,
		Class:       fontClassTag,
		Loader:      fontClassTag,
		UUID:        refl.NewUUID(),
		Description: "imported outline font: " + path,
		PathOnDisk:  path,
	}
	ctx.Emit(ProducedAsset{Id: asset.NewId(name), Meta: meta, Artifact: tree})
	return nil
}

func (FontImporter) importFNT(ctx *Context, path string, settings refl.DynObject) error {
	font, err := bmfont.Load(path)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	sum := sha256.Sum256(data)
	ctx.AddSource(path, hex.EncodeToString(sum[:]))

	opts, _ := settings.Payload.(FontSettings)
	atlasDir := opts.AtlasDir
	if atlasDir == "" {
		atlasDir = filepath.Dir(path)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	fontId := asset.NewId(name)

	var pageIds []asset.Id
	for _, page := range font.Descriptor.Pages {
		pagePath := filepath.Join(atlasDir, page.File)
		pageData, err := os.ReadFile(pagePath)
		if err != nil {
			return err
		}
		pageSum := sha256.Sum256(pageData)
		ctx.AddSource(pagePath, hex.EncodeToString(pageSum[:]))

		pageTree := ioblob.CreateTree()
		pc := pageTree.Cursor()
		pc.WriteValue("file", ioblob.StringValue(page.File))
		pc.WriteValue("raw", ioblob.StringValue(string(pageData)))

		pageName := fmt.Sprintf("%s/page%d", name, page.ID)
		pageId := asset.NewId(pageName)
		pageIds = append(pageIds, pageId)
		ctx.DeclareChild(ProducedAsset{
			Id: pageId,
			Meta: &asset.Meta{
				Version:     1,
				Class:       textureClassTag,
				Loader:      textureClassTag,
				UUID:        refl.NewUUID(),
				Description: "bitmap font atlas page: " + pagePath,
				PathOnDisk:  pagePath,
			},
			Artifact: pageTree,
		})
	}

	tree := ioblob.CreateTree()
	c := tree.Cursor()
	c.WriteValue("kind", ioblob.StringValue("bitmap"))
	c.WriteValue("face", ioblob.StringValue(font.Descriptor.Info.Face))
	c.WriteValue("size", ioblob.Int32Value(int32(font.Descriptor.Info.Size)))
	c.WriteValue("line_height", ioblob.Int32Value(int32(font.Descriptor.Common.LineHeight)))
	c.WriteValue("baseline", ioblob.Int32Value(int32(font.Descriptor.Common.Base)))

	c.AppendChild("pages", ioblob.KindList)
	for _, pid := range pageIds {
		pc := c.AppendChild("", ioblob.KindString)
		pc.Value = ioblob.StringValue(pid.String())
		c.Pop()
	}
	c.Pop()

	c.AppendChild("glyphs", ioblob.KindList)
	for _, g := range font.Descriptor.Chars {
		c.AppendChild("", ioblob.KindMap)
		c.WriteValue("codepoint", ioblob.Int32Value(int32(g.ID)))
		c.WriteValue("x", ioblob.Int32Value(int32(g.X)))
		c.WriteValue("y", ioblob.Int32Value(int32(g.Y)))
		c.WriteValue("width", ioblob.Int32Value(int32(g.Width)))
		c.WriteValue("height", ioblob.Int32Value(int32(g.Height)))
		c.WriteValue("xadvance", ioblob.Int32Value(int32(g.XAdvance)))
		c.WriteValue("xoffset", ioblob.Int32Value(int32(g.XOffset)))
		c.WriteValue("yoffset", ioblob.Int32Value(int32(g.YOffset)))
		c.WriteValue("page", ioblob.Int32Value(int32(g.Page)))
		c.Pop()
	}
	c.Pop()

	meta := &asset.Meta{
		Version:     1,
		Class:       fontClassTag,
		Loader:      fontClassTag,
		UUID:        refl.NewUUID(),
		Description: "imported bitmap font: " + path,
		PathOnDisk:  path,
		Deps:        pageIds,
	}
	ctx.Emit(ProducedAsset{Id: fontId, Meta: meta, Artifact: tree})
	return nil
}
