package assetmanager

import (
	"os"
	"path/filepath"

	"github.com/ember-forge/pipeline/asset"
	"github.com/ember-forge/pipeline/internal/status"
)

// FilesystemPack resolves assets under a root directory, one ".res"
// sidecar per asset named after its AssetId (spec §6's ".res" on-disk
// format), grounded on original_source/engine/resource/paks/resource_pak_fs.cpp.
type FilesystemPack struct {
	root string
}

func NewFilesystemPack(root string) *FilesystemPack {
	return &FilesystemPack{root: root}
}

func (p *FilesystemPack) Name() string { return p.root }

func (p *FilesystemPack) metaPath(id asset.Id) string {
	return filepath.Join(p.root, id.String()+".res")
}

func (p *FilesystemPack) GetMeta(id asset.Id) (*asset.Meta, error) {
	data, err := os.ReadFile(p.metaPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, status.Wrap(status.FailedFindFile, err, "no meta for %s in %s", id, p.root)
		}
		return nil, status.Wrap(status.FailedOpenFile, err, "reading meta for %s", id)
	}
	meta, err := asset.ParseMeta(data)
	if err != nil {
		return nil, status.Wrap(status.FailedParse, err, "parsing meta for %s", id)
	}
	return meta, nil
}

func (p *FilesystemPack) ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(p.root, path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, status.Wrap(status.FailedFindFile, err, "reading %s from %s", path, p.root)
		}
		return nil, status.Wrap(status.FailedOpenFile, err, "reading %s from %s", path, p.root)
	}
	return data, nil
}
