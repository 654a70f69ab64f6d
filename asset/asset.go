package asset

import "github.com/ember-forge/pipeline/refl"

// Asset is the polymorphic runtime object every loader produces (spec
// §3: "a single concrete Go type tagged by class, not a hierarchy of
// concrete asset types"). Capability is expressed by what Payload
// satisfies, not by embedding — the same DynObject-flavored approach refl
// uses for reflected classes.
type Asset struct {
	ID      Id
	UUID    refl.UUID
	Class   refl.Strid
	Payload interface{}
}

func NewAsset(id Id, class refl.Strid, payload interface{}) *Asset {
	return &Asset{ID: id, UUID: refl.NewUUID(), Class: class, Payload: payload}
}

func (a *Asset) Is(class refl.Strid) bool { return a.Class.Equal(class) }
