package loader

import (
	"github.com/ember-forge/pipeline/asset"
	"github.com/ember-forge/pipeline/assetmanager"
	"github.com/ember-forge/pipeline/refl"
	"github.com/ember-forge/pipeline/shader"
)

var ShaderClassTag = refl.Intern("shader")

// ShaderPayload is a shader asset's loaded form: the reflection the
// importer already expanded (spec §4.8 phase 1, never redone at load
// time) and a fresh permutation Cache this one shader asset owns for the
// rest of its lifetime (spec §4.8 phase 3: "each shader owns one cache").
type ShaderPayload struct {
	Reflection *shader.Reflection
	Cache      *shader.Cache
}

type ShaderLoader struct{}

func (ShaderLoader) Load(req *assetmanager.LoadRequest) (*asset.Asset, error) {
	tree, err := readArtifact(req)
	if err != nil {
		return nil, err
	}
	reflection, err := shader.DecodeReflection(tree)
	if err != nil {
		return nil, err
	}

	payload := &ShaderPayload{Reflection: reflection, Cache: shader.NewCache()}
	return asset.NewAsset(req.Id, ShaderClassTag, payload), nil
}
