package loader

import (
	"github.com/ember-forge/pipeline/asset"
	"github.com/ember-forge/pipeline/assetmanager"
	"github.com/ember-forge/pipeline/internal/status"
	"github.com/ember-forge/pipeline/ioblob"
	"github.com/ember-forge/pipeline/refl"
)

var NativeClassTag = refl.Intern("native")

// NativeLoader rebuilds a registered class instance straight from its
// artifact's reflected fields, the same ReadInto surface the importer uses
// on the source YAML — no format-specific decoding needed since the
// artifact already is the field set.
type NativeLoader struct {
	Registry *refl.Registry
}

func (n NativeLoader) Load(req *assetmanager.LoadRequest) (*asset.Asset, error) {
	tree, err := readArtifact(req)
	if err != nil {
		return nil, err
	}
	c := tree.Cursor()

	classTagStr, err := ioblob.ReadString(c, "class")
	if err != nil {
		return nil, err
	}
	classTag := refl.Intern(classTagStr)

	desc, ok := n.Registry.Lookup(classTag)
	if !ok {
		return nil, status.New(status.NoClass, "no native class registered for %q", classTagStr)
	}

	obj := desc.Factory()
	if err := refl.ReadInto(desc, c, obj); err != nil {
		return nil, err
	}

	return asset.NewAsset(req.Id, classTag, obj), nil
}
