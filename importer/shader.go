package importer

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"

	"github.com/ember-forge/pipeline/asset"
	"github.com/ember-forge/pipeline/refl"
	"github.com/ember-forge/pipeline/shader"
)

// ShaderImporter parses a .shader YAML description into a ShaderReflection
// at import time (spec §4.6, §4.8 phase 1), so the loader only ever does
// permutation selection, cache lookup, and compile — never the reflection
// pass. `extends` bases are resolved against sibling files in the same
// directory, matching how the teacher keeps related shader configs
// colocated (engine/assets/loaders/shader.go's resource-relative paths).
type ShaderImporter struct{}

var shaderClassTag = refl.Intern("shader")

func (ShaderImporter) FileExtensions() []string { return []string{".shader"} }

func (ShaderImporter) Version() int32 { return 1 }

// ShaderSettings names a technique/pass and the non-base option variants to
// precompile it with, the import_data payload a "<name>.presets.toml"
// fragment's [[presets]] entries describe (spec §4.6 presets(path), §4.8
// phase 2 permutation selection).
type ShaderSettings struct {
	Technique string
	Pass      string
	Options   map[string]string
}

// Presets has no built-in defaults of its own: a .shader file's techniques
// and passes aren't known until it's parsed, so there is no generic
// "default" preset to offer the way texture/font/audio/mesh do. Authors
// name the permutations worth pinning a preset to through a sibling
// "<name>.presets.toml" fragment instead.
func (ShaderImporter) Presets(path string) []Preset {
	var presets []Preset
	for _, e := range loadPresetFragment(path) {
		presets = append(presets, Preset{
			Name:     e.Name,
			Template: refl.NewDynObject(shaderClassTag, ShaderSettings{Technique: e.Technique, Pass: e.Pass, Options: e.Options}),
		})
	}
	return presets
}

func (ShaderImporter) CollectDependencies(ctx *Context, path string, settings refl.DynObject) error {
	return nil
}

func (ShaderImporter) Import(ctx *Context, path string, settings refl.DynObject) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	sum := sha256.Sum256(data)
	ctx.AddSource(path, hex.EncodeToString(sum[:]))

	file, err := shader.ParseShaderFile(data)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	resolveExtends := func(name string) (*shader.ShaderFile, bool) {
		basePath := filepath.Join(dir, name+".shader")
		baseData, err := os.ReadFile(basePath)
		if err != nil {
			return nil, false
		}
		baseSum := sha256.Sum256(baseData)
		ctx.AddSource(basePath, hex.EncodeToString(baseSum[:]))
		baseFile, err := shader.ParseShaderFile(baseData)
		if err != nil {
			return nil, false
		}
		return baseFile, true
	}

	reflection, err := shader.Reflect(file, resolveExtends)
	if err != nil {
		return err
	}

	artifact := shader.EncodeReflection(reflection)

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	meta := &asset.Meta{
		Version:     1,
		Class:       shaderClassTag,
		Loader:      shaderClassTag,
		UUID:        refl.NewUUID(),
		Description: "imported shader: " + path,
		PathOnDisk:  path,
	}
	ctx.Emit(ProducedAsset{Id: asset.NewId(name), Meta: meta, Artifact: artifact})
	return nil
}
