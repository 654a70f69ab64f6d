// Package assetmanager is the pack abstraction and caching resolver (spec
// §4.5), grounded on the teacher's engine/assets/assets.go (fsnotify watch
// loop, loader registration table) and on
// original_source/engine/resource/resource_manager.{hpp,cpp} and
// resource_pak.hpp for the resolution algorithm and pack interface.
package assetmanager

import "github.com/ember-forge/pipeline/asset"

// Pack is a read-only mount point providing asset metadata and artifact
// bytes (spec §6: AssetPack.name/get_meta/read_file).
type Pack interface {
	Name() string
	GetMeta(id asset.Id) (*asset.Meta, error)
	ReadFile(path string) ([]byte, error)
}
