package asset

import (
	"github.com/ember-forge/pipeline/internal/status"
	"github.com/ember-forge/pipeline/ioblob"
	"github.com/ember-forge/pipeline/refl"
)

// Meta is the on-disk ".res" sidecar (spec §4.2, supplemented from
// original_source/engine/core/resource_meta.hpp): a small YAML document
// naming the asset's class, its loader, a content-independent uuid, its
// static dependency set, and an optional inline import_data block carried
// for re-importable assets.
type Meta struct {
	Version     int32
	Class       refl.Strid
	Loader      refl.Strid
	UUID        refl.UUID
	Deps        []Id
	Description string
	PathOnDisk  string      // optional; importers set it to the source file path, for diagnostics only.
	ImportData  *ImportData // nil when the asset has no importer (native).
}

const (
	metaKeyVersion     = "version"
	metaKeyClass       = "class"
	metaKeyLoader      = "loader"
	metaKeyUUID        = "uuid"
	metaKeyDeps        = "deps"
	metaKeyDescription = "description"
	metaKeyPathOnDisk  = "path_on_disk"
	metaKeyImportData  = "import_data"
)

// ParseMeta decodes a ".res" file's YAML bytes into a Meta.
func ParseMeta(data []byte) (*Meta, error) {
	backend := ioblob.YAMLBackend{}
	tree, err := backend.Parse(data)
	if err != nil {
		return nil, status.Wrap(status.FailedParse, err, "parsing asset meta")
	}
	c := tree.Cursor()

	class, err := ioblob.ReadString(c, metaKeyClass)
	if err != nil {
		return nil, status.Wrap(status.FailedParse, err, "meta missing %q", metaKeyClass)
	}
	meta := &Meta{Class: refl.Intern(class)}
	meta.Version, _ = ioblob.ReadInt32(c, metaKeyVersion)
	meta.Description, _ = ioblob.ReadString(c, metaKeyDescription)
	meta.PathOnDisk, _ = ioblob.ReadString(c, metaKeyPathOnDisk)

	if loader, err := ioblob.ReadString(c, metaKeyLoader); err == nil {
		meta.Loader = refl.Intern(loader)
	}
	if id, err := ioblob.ReadString(c, metaKeyUUID); err == nil {
		u, err := refl.ParseUUID(id)
		if err != nil {
			return nil, status.Wrap(status.FailedParse, err, "meta %q", metaKeyUUID)
		}
		meta.UUID = u
	} else {
		meta.UUID = refl.NewUUID()
	}

	if c.FindChild(metaKeyDeps) {
		for _, child := range c.Current().Children {
			if child.Value.Kind == ioblob.KindString || child.Value.Kind == ioblob.KindInternedString {
				meta.Deps = append(meta.Deps, NewId(child.Value.String()))
			}
		}
		c.Pop()
	}

	if c.FindChild(metaKeyImportData) {
		id, err := parseImportData(c)
		if err != nil {
			return nil, status.Wrap(status.FailedParse, err, "meta %q", metaKeyImportData)
		}
		meta.ImportData = id
		c.Pop()
	}

	return meta, nil
}

// Encode serializes meta back to ".res" YAML bytes.
func (m *Meta) Encode() ([]byte, error) {
	tree := ioblob.CreateTree()
	c := tree.Cursor()
	c.WriteValue(metaKeyVersion, ioblob.Int32Value(m.Version))
	c.WriteValue(metaKeyClass, ioblob.StringValue(m.Class.String()))
	if m.Loader.IsValid() {
		c.WriteValue(metaKeyLoader, ioblob.StringValue(m.Loader.String()))
	}
	c.WriteValue(metaKeyUUID, ioblob.StringValue(m.UUID.String()))
	if m.Description != "" {
		c.WriteValue(metaKeyDescription, ioblob.StringValue(m.Description))
	}
	if m.PathOnDisk != "" {
		c.WriteValue(metaKeyPathOnDisk, ioblob.StringValue(m.PathOnDisk))
	}

	if len(m.Deps) > 0 {
		depsNode := c.AppendChild(metaKeyDeps, ioblob.KindList)
		for _, dep := range m.Deps {
			depsNode.Children = append(depsNode.Children, &ioblob.Node{
				Kind:  ioblob.KindString,
				Value: ioblob.StringValue(dep.String()),
			})
		}
		c.Pop()
	}

	if m.ImportData != nil {
		c.AppendChild(metaKeyImportData, ioblob.KindMap)
		writeImportData(c, m.ImportData)
		c.Pop()
	}

	backend := ioblob.YAMLBackend{}
	out, err := backend.Save(tree)
	if err != nil {
		return nil, status.Wrap(status.FailedEncode, err, "encoding asset meta")
	}
	return out, nil
}
