package refl

// DynObject is the tagged-variant replacement for the source's deep
// virtual inheritance (spec §9): a class tag plus an opaque payload,
// letting asset/importer/loader code carry "some polymorphic object of
// class X" without a shared base class. Capability is expressed by the
// payload satisfying narrow interfaces (trait-like capability sets), not
// by inheritance depth.
type DynObject struct {
	Tag     Strid
	Payload interface{}
}

func NewDynObject(tag Strid, payload interface{}) DynObject {
	return DynObject{Tag: tag, Payload: payload}
}

func (d DynObject) IsValid() bool { return d.Tag.IsValid() }

// Is reports whether d is tagged with class tag.
func (d DynObject) Is(tag Strid) bool { return d.Tag.Equal(tag) }
