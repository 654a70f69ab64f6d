package importer

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"

	"github.com/ember-forge/pipeline/asset"
	"github.com/ember-forge/pipeline/ioblob"
	"github.com/ember-forge/pipeline/refl"
)

// TextureImporter produces a 2D or cube texture asset from a common raster
// image format, grounded on the teacher's engine/assets/loaders/texture.go
// (image.Decode over the registered format set) and original_source's
// stbimage importer plugin. Unlike the teacher's runtime-only loader, this
// importer runs offline: it decodes once, flattens the pixels into an
// artifact tree, and lets the loader (C7) hand the raw RGBA bytes straight
// to the GPU driver without re-decoding at load time.
type TextureImporter struct{}

var textureClassTag = refl.Intern("texture")

func (TextureImporter) FileExtensions() []string {
	return []string{".png", ".jpg", ".jpeg", ".bmp"}
}

func (TextureImporter) Version() int32 { return 1 }

func (TextureImporter) Presets(path string) []Preset {
	presets := []Preset{
		{Name: "default", Template: refl.NewDynObject(textureClassTag, TextureSettings{GenerateMips: true})},
		{Name: "ui-sprite", Template: refl.NewDynObject(textureClassTag, TextureSettings{GenerateMips: false})},
	}
	// Authors can add named presets alongside a source image via an optional
	// sibling "<name>.presets.toml" fragment (spec §4.6 presets(path)).
	for _, e := range loadPresetFragment(path) {
		mips, _ := e.boolOption("generate_mips")
		cubemap, _ := e.boolOption("is_cubemap")
		srgb, _ := e.boolOption("srgb")
		presets = append(presets, Preset{
			Name:     e.Name,
			Template: refl.NewDynObject(textureClassTag, TextureSettings{GenerateMips: mips, IsCubemap: cubemap, SRGB: srgb}),
		})
	}
	return presets
}

// TextureSettings is the importer's ImportData.Options payload.
type TextureSettings struct {
	GenerateMips bool
	IsCubemap    bool
	SRGB         bool
}

func (TextureImporter) CollectDependencies(ctx *Context, path string, settings refl.DynObject) error {
	// Textures are leaves: no other assets to depend on.
	return nil
}

func (TextureImporter) Import(ctx *Context, path string, settings refl.DynObject) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	sum := sha256.Sum256(data)
	ctx.AddSource(path, hex.EncodeToString(sum[:]))

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return err
	}

	opts, _ := settings.Payload.(TextureSettings)

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	rgba := toRGBA(img)

	tree := ioblob.CreateTree()
	c := tree.Cursor()
	c.WriteValue("format", ioblob.StringValue(format))
	c.WriteValue("width", ioblob.Int32Value(int32(width)))
	c.WriteValue("height", ioblob.Int32Value(int32(height)))
	c.WriteValue("srgb", ioblob.BoolValue(opts.SRGB))
	c.WriteValue("mips", ioblob.BoolValue(opts.GenerateMips))
	c.WriteValue("cubemap", ioblob.BoolValue(opts.IsCubemap))
	c.WriteValue("pixels", ioblob.StringValue(string(rgba)))

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	id := asset.NewId(name)
	meta := &asset.Meta{
		Version:     1,
		Class:       textureClassTag,
		Loader:      textureClassTag,
		UUID:        refl.NewUUID(),
		Description: "imported texture: " + path,
		PathOnDisk:  path,
	}

	ctx.Emit(ProducedAsset{Id: id, Meta: meta, Artifact: tree})
	return nil
}

func toRGBA(img image.Image) []byte {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := make([]byte, w*h*4)
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, a := img.At(x, y).RGBA()
			out[i] = byte(r >> 8)
			out[i+1] = byte(g >> 8)
			out[i+2] = byte(bl >> 8)
			out[i+3] = byte(a >> 8)
			i += 4
		}
	}
	return out
}
