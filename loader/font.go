package loader

import (
	"golang.org/x/image/font/sfnt"

	"github.com/ember-forge/pipeline/asset"
	"github.com/ember-forge/pipeline/assetmanager"
	"github.com/ember-forge/pipeline/ioblob"
	"github.com/ember-forge/pipeline/refl"
)

var FontClassTag = refl.Intern("font")

// Glyph is one bitmap-font character's atlas placement and advance
// metrics, mirroring the fields FontImporter's importFNT path reflects out
// of bmfont's descriptor.
type Glyph struct {
	Codepoint                  int32
	X, Y, Width, Height        int32
	XAdvance, XOffset, YOffset int32
	Page                       int32
}

// FontPayload covers both font kinds a FontImporter produces. Kind
// "bitmap" carries Pages/Glyphs and a rasterized atlas per page, already
// resolvable as textures; kind "outline" carries the parsed SFNT font for
// a renderer to rasterize glyphs from on demand.
type FontPayload struct {
	Kind       string
	Face       string
	Size       int32
	LineHeight int32
	Baseline   int32
	Pages      []*asset.AssetRef[TexturePayload]
	Glyphs     []Glyph
	Outline    *sfnt.Font
}

type FontLoader struct{}

func (FontLoader) Load(req *assetmanager.LoadRequest) (*asset.Asset, error) {
	tree, err := readArtifact(req)
	if err != nil {
		return nil, err
	}
	c := tree.Cursor()

	kind, err := ioblob.ReadString(c, "kind")
	if err != nil {
		return nil, err
	}
	if kind == "outline" {
		return loadOutlineFont(req, c)
	}
	return loadBitmapFont(req, c)
}

func loadOutlineFont(req *assetmanager.LoadRequest, c *ioblob.Cursor) (*asset.Asset, error) {
	data, err := ioblob.ReadString(c, "sfnt")
	if err != nil {
		return nil, err
	}
	font, err := sfnt.Parse([]byte(data))
	if err != nil {
		return nil, err
	}
	payload := &FontPayload{Kind: "outline", Outline: font}
	return asset.NewAsset(req.Id, FontClassTag, payload), nil
}

func loadBitmapFont(req *assetmanager.LoadRequest, c *ioblob.Cursor) (*asset.Asset, error) {
	face, _ := ioblob.ReadString(c, "face")
	size, _ := ioblob.ReadInt32(c, "size")
	lineHeight, _ := ioblob.ReadInt32(c, "line_height")
	baseline, _ := ioblob.ReadInt32(c, "baseline")

	payload := &FontPayload{
		Kind: "bitmap", Face: face, Size: size,
		LineHeight: lineHeight, Baseline: baseline,
	}

	if c.FindChild("pages") {
		if c.FirstChild() {
			for {
				pageIdStr := c.Current().Value.String()
				payload.Pages = append(payload.Pages, asset.NewAssetRef[TexturePayload](asset.NewId(pageIdStr)))
				if !c.NextSibling() {
					break
				}
			}
			c.Pop()
		}
		c.Pop()
	}

	if c.FindChild("glyphs") {
		if c.FirstChild() {
			for {
				var g Glyph
				if v, ok := c.ReadValue("codepoint"); ok {
					g.Codepoint = v.Int32()
				}
				if v, ok := c.ReadValue("x"); ok {
					g.X = v.Int32()
				}
				if v, ok := c.ReadValue("y"); ok {
					g.Y = v.Int32()
				}
				if v, ok := c.ReadValue("width"); ok {
					g.Width = v.Int32()
				}
				if v, ok := c.ReadValue("height"); ok {
					g.Height = v.Int32()
				}
				if v, ok := c.ReadValue("xadvance"); ok {
					g.XAdvance = v.Int32()
				}
				if v, ok := c.ReadValue("xoffset"); ok {
					g.XOffset = v.Int32()
				}
				if v, ok := c.ReadValue("yoffset"); ok {
					g.YOffset = v.Int32()
				}
				if v, ok := c.ReadValue("page"); ok {
					g.Page = v.Int32()
				}
				payload.Glyphs = append(payload.Glyphs, g)
				if !c.NextSibling() {
					break
				}
			}
			c.Pop()
		}
		c.Pop()
	}

	return asset.NewAsset(req.Id, FontClassTag, payload), nil
}
