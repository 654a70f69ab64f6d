// Package asset is the asset identity and data model (spec §3, §4.4):
// AssetId, the polymorphic Asset base, AssetMeta, ImportData, and the
// weak/strong reference scheme AssetRef resolves through.
package asset

import "github.com/ember-forge/pipeline/refl"

// Id is a handle wrapping an interned name (spec calls it AssetId; Go
// already has a builtin-ish "asset.Id" reading naturally as a package
// member). Equality is the interned string's pointer equality, hash is its
// pointer value — AssetId is itself a valid, comparable Go map key.
type Id struct {
	strid refl.Strid
}

// Invalid is the sentinel empty AssetId (spec §3: "An empty id is
// sentinel").
var Invalid Id

func NewId(name string) Id {
	return Id{strid: refl.Intern(name)}
}

func (id Id) String() string { return id.strid.String() }

func (id Id) IsValid() bool { return id.strid.IsValid() }

func (id Id) Equal(o Id) bool { return id.strid.Equal(o.strid) }

// Hash returns the pointer-derived identity spec §3 describes ("hash =
// pointer value"); Go's built-in map already does this for free since Id
// is comparable, but callers building their own hash tables (e.g. a
// fixed-bucket cache) can use this directly.
func (id Id) Hash() uintptr { return id.strid.Id() }
