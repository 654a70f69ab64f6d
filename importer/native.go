package importer

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"

	"github.com/ember-forge/pipeline/asset"
	"github.com/ember-forge/pipeline/internal/status"
	"github.com/ember-forge/pipeline/ioblob"
	"github.com/ember-forge/pipeline/refl"
)

// NativeImporter is the catch-all for assets with no format-specific
// importer: the artifact is the asset's own registered fields, serialised
// verbatim, grounded on original_source/engine/resource/loaders/
// resource_loader_default.cpp's pass-through behavior. The source file is a
// YAML document whose top-level "class" key names a refl.Registry class;
// the importer round-trips it through ReadInto/WriteFrom so the artifact
// always reflects exactly the registered field set, dropping anything the
// hand-authored YAML got wrong.
type NativeImporter struct {
	Registry *refl.Registry
}

var nativeClassTag = refl.Intern("native")

func (NativeImporter) FileExtensions() []string { return []string{".native"} }

func (NativeImporter) Version() int32 { return 1 }

func (NativeImporter) Presets(path string) []Preset { return nil }

func (n NativeImporter) CollectDependencies(ctx *Context, path string, settings refl.DynObject) error {
	return nil
}

func (n NativeImporter) Import(ctx *Context, path string, settings refl.DynObject) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	sum := sha256.Sum256(data)
	ctx.AddSource(path, hex.EncodeToString(sum[:]))

	backend := ioblob.YAMLBackend{}
	doc, err := backend.Parse(data)
	if err != nil {
		return err
	}
	c := doc.Cursor()

	classTagStr, err := ioblob.ReadString(c, "class")
	if err != nil {
		return err
	}
	classTag := refl.Intern(classTagStr)

	desc, ok := n.Registry.Lookup(classTag)
	if !ok {
		return status.New(status.NoClass, "no native class registered for %q", classTagStr)
	}

	obj := desc.Factory()
	if err := refl.ReadInto(desc, c, obj); err != nil {
		return err
	}

	artifact := ioblob.CreateTree()
	ac := artifact.Cursor()
	ac.WriteValue("class", ioblob.StringValue(classTagStr))
	if err := refl.WriteFrom(desc, ac, obj); err != nil {
		return err
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	meta := &asset.Meta{
		Version:     1,
		Class:       classTag,
		Loader:      nativeClassTag,
		UUID:        refl.NewUUID(),
		Description: "imported native asset: " + path,
		PathOnDisk:  path,
	}
	ctx.Emit(ProducedAsset{Id: asset.NewId(name), Meta: meta, Artifact: artifact})
	return nil
}
