package importer

import (
	"os"
	"path/filepath"

	"github.com/ember-forge/pipeline/asset"
	"github.com/ember-forge/pipeline/internal/status"
	"github.com/ember-forge/pipeline/ioblob"
)

// ArtifactStore persists artifact bytes addressed by (asset id, tag).
// Runner.RunImport writes every artifact under the "main" tag; a mesh keeps
// its vertex and index blobs together in that one artifact tree.
type ArtifactStore interface {
	Read(id asset.Id, tag string) ([]byte, bool)
	Write(id asset.Id, tag string, data []byte) error
	ReadMeta(id asset.Id) (*asset.Meta, bool)
	WriteMeta(id asset.Id, meta *asset.Meta) error
}

// FileArtifactStore lays artifacts and their ".res" sidecars out under a
// root directory, one file per (id, tag), grounded on
// original_source/engine/resource/paks/resource_pak_fs.cpp's on-disk
// layout.
type FileArtifactStore struct {
	root string
}

func NewFileArtifactStore(root string) *FileArtifactStore {
	return &FileArtifactStore{root: root}
}

func (s *FileArtifactStore) artifactPath(id asset.Id, tag string) string {
	return filepath.Join(s.root, id.String()+"."+tag+".art")
}

func (s *FileArtifactStore) metaPath(id asset.Id) string {
	return filepath.Join(s.root, id.String()+".res")
}

func (s *FileArtifactStore) Read(id asset.Id, tag string) ([]byte, bool) {
	data, err := os.ReadFile(s.artifactPath(id, tag))
	if err != nil {
		return nil, false
	}
	return data, true
}

func (s *FileArtifactStore) Write(id asset.Id, tag string, data []byte) error {
	path := s.artifactPath(id, tag)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return status.Wrap(status.FailedWrite, err, "creating artifact dir for %s", id)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return status.Wrap(status.FailedWrite, err, "writing artifact for %s", id)
	}
	return nil
}

func (s *FileArtifactStore) ReadMeta(id asset.Id) (*asset.Meta, bool) {
	data, err := os.ReadFile(s.metaPath(id))
	if err != nil {
		return nil, false
	}
	meta, err := asset.ParseMeta(data)
	if err != nil {
		return nil, false
	}
	return meta, true
}

func (s *FileArtifactStore) WriteMeta(id asset.Id, meta *asset.Meta) error {
	data, err := meta.Encode()
	if err != nil {
		return status.Wrap(status.FailedEncode, err, "encoding meta for %s", id)
	}
	path := s.metaPath(id)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return status.Wrap(status.FailedWrite, err, "creating meta dir for %s", id)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return status.Wrap(status.FailedWrite, err, "writing meta for %s", id)
	}
	return nil
}

// EncodeArtifact is the standard way a ProducedAsset's in-memory tree
// becomes on-disk bytes: the magic-tagged, optionally LZ4-compressed
// binary backend (spec §6's artifact blob format).
func EncodeArtifact(tree *ioblob.Tree, compress bool) ([]byte, error) {
	backend := ioblob.BinaryBackend{Compress: compress}
	return backend.Save(tree)
}

func DecodeArtifact(data []byte) (*ioblob.Tree, error) {
	backend := ioblob.BinaryBackend{}
	return backend.Parse(data)
}
