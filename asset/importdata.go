package asset

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"

	"github.com/ember-forge/pipeline/internal/status"
	"github.com/ember-forge/pipeline/ioblob"
	"github.com/ember-forge/pipeline/refl"
)

// SourceFile is one file an importer read to produce an asset, with a
// content hash captured at import time.
type SourceFile struct {
	Path string
	Hash string
}

// ImportData is the polymorphic, importer-specific options blob carried
// inline in a ".res" file (spec §4.4, supplemented from
// original_source/engine/core/resource_meta.hpp's optional import_data
// block). The artifact cache invalidation rule (spec §6.2) is: re-run the
// importer iff the importer's version, this blob's hash, or any source
// file's hash has changed since the cached artifact was produced.
type ImportData struct {
	Importer refl.Strid
	Version  int32
	Sources  []SourceFile
	Options  refl.DynObject
}

const (
	importDataKeyImporter = "importer"
	importDataKeyVersion  = "version"
	importDataKeySources  = "sources"
	importDataKeyOptions  = "options"
)

func parseImportData(c *ioblob.Cursor) (*ImportData, error) {
	importer, err := ioblob.ReadString(c, importDataKeyImporter)
	if err != nil {
		return nil, status.Wrap(status.FailedParse, err, "import_data missing %q", importDataKeyImporter)
	}
	version, _ := ioblob.ReadInt32(c, importDataKeyVersion)

	id := &ImportData{Importer: refl.Intern(importer), Version: version}

	if c.FindChild(importDataKeySources) {
		for _, ch := range c.Current().Children {
			var path, hash string
			for _, leaf := range ch.Children {
				switch leaf.Name {
				case "path":
					path = leaf.Value.String()
				case "hash":
					hash = leaf.Value.String()
				}
			}
			id.Sources = append(id.Sources, SourceFile{Path: path, Hash: hash})
		}
		c.Pop()
	}

	// Options are importer-specific and opaque to this package; the
	// importer that registered `importer` is responsible for decoding the
	// raw tree node it stashed under Options.Payload.
	if c.FindChild(importDataKeyOptions) {
		id.Options = refl.NewDynObject(id.Importer, c.Current())
		c.Pop()
	}

	return id, nil
}

func writeImportData(c *ioblob.Cursor, id *ImportData) {
	c.WriteValue(importDataKeyImporter, ioblob.StringValue(id.Importer.String()))
	c.WriteValue(importDataKeyVersion, ioblob.Int32Value(id.Version))

	if len(id.Sources) > 0 {
		c.AppendChild(importDataKeySources, ioblob.KindList)
		for _, src := range id.Sources {
			c.AppendChild("", ioblob.KindMap)
			c.WriteValue("path", ioblob.StringValue(src.Path))
			c.WriteValue("hash", ioblob.StringValue(src.Hash))
			c.Pop()
		}
		c.Pop()
	}

	if node, ok := id.Options.Payload.(*ioblob.Node); ok {
		c.AppendChild(importDataKeyOptions, node.Kind)
		c.Current().Children = node.Children
		c.Pop()
	}
}

// Hash computes a deterministic digest over the importer tag, version and
// every source file's (path, hash) pair — the sole input, together with
// the importer's own version, that determines an artifact's bytes (spec
// §6.2).
func (id *ImportData) Hash() string {
	sources := append([]SourceFile(nil), id.Sources...)
	sort.Slice(sources, func(i, j int) bool { return sources[i].Path < sources[j].Path })

	h := sha256.New()
	h.Write([]byte(id.Importer.String()))
	h.Write([]byte{byte(id.Version), byte(id.Version >> 8), byte(id.Version >> 16), byte(id.Version >> 24)})
	for _, src := range sources {
		h.Write([]byte(src.Path))
		h.Write([]byte(src.Hash))
	}
	return hex.EncodeToString(h.Sum(nil))
}
