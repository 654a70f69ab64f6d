// Package importer is the stateless importer-plugin framework (spec §4.6):
// source file -> N child assets + content-addressed artifact blobs.
// Grounded on the teacher's engine/assets/loaders/* one-file-per-format
// loaders, generalized into a registrable plugin interface, and on
// original_source/engine/resource/importers/ for the collect-deps/import
// two-phase shape.
package importer

import (
	"github.com/ember-forge/pipeline/asset"
	"github.com/ember-forge/pipeline/ioblob"
	"github.com/ember-forge/pipeline/refl"
)

// Preset is a named starting point for an importer's settings, surfaced to
// authoring tools (spec §4.6: presets(path) -> [{name, import-data-template}]).
type Preset struct {
	Name     string
	Template refl.DynObject
}

// ProducedAsset is one asset an importer run emits: its id, the metadata
// that will become its ".res" sidecar, and the in-memory artifact tree the
// framework writes through ioblob's binary backend.
type ProducedAsset struct {
	Id       asset.Id
	Meta     *asset.Meta
	Artifact *ioblob.Tree
}

// Context accumulates an import run's side effects: the asset(s) produced
// and the source files read, so the framework can compute the
// importer-version/import-data-hash/source-hash triple spec §4.6's caching
// rule keys on.
type Context struct {
	Deps     *asset.DepCollector
	Sources  []asset.SourceFile
	Produced []ProducedAsset
}

func NewContext() *Context {
	return &Context{Deps: asset.NewDepCollector()}
}

// AddSource records a source file this import run read, capturing its
// content hash for later cache-invalidation checks.
func (c *Context) AddSource(path, hash string) {
	c.Sources = append(c.Sources, asset.SourceFile{Path: path, Hash: hash})
}

func (c *Context) Emit(p ProducedAsset) {
	c.Produced = append(c.Produced, p)
}

// DeclareChild emits a secondary asset produced alongside the importer's
// primary output (e.g. a font importer's hidden glyph-atlas texture),
// grounded on original_source/engine/plugins/runtime/code/asset/
// icon_atlas_asset_loader.cpp's primary-plus-derived-atlas shape. Children
// are ordinary ProducedAsset entries; the parent references the child by id
// through its own meta or artifact fields.
func (c *Context) DeclareChild(p ProducedAsset) {
	c.Emit(p)
}

// Importer is a replaceable source-format plugin (spec §4.6).
type Importer interface {
	// FileExtensions lists the source extensions this importer claims,
	// including the leading dot (".png", ".ttf", ...).
	FileExtensions() []string
	// Version changes whenever this importer's output format changes,
	// forcing every asset it produced to be re-imported.
	Version() int32
	Presets(path string) []Preset
	// CollectDependencies walks path's source data far enough to name
	// every asset it will depend on, without doing the full import.
	CollectDependencies(ctx *Context, path string, settings refl.DynObject) error
	// Import performs the full conversion, emitting one or more
	// ProducedAsset values into ctx.
	Import(ctx *Context, path string, settings refl.DynObject) error
}
