package refl

import (
	"reflect"
	"sync"

	"golang.org/x/exp/slices"

	"github.com/ember-forge/pipeline/internal/status"
	"github.com/ember-forge/pipeline/ioblob"
)

// FieldFlag annotates a registered field's (de)serialization behavior.
type FieldFlag uint8

const (
	// FieldOptional fields may be absent from a tree without error.
	FieldOptional FieldFlag = 1 << iota
	// FieldNoSaveLoad fields are runtime-only: never read or written.
	FieldNoSaveLoad
	// FieldUIHint fields carry authoring metadata only.
	FieldUIHint
)

// FieldDesc is one registered field's metadata: name, byte offset within
// the struct (useful to callers doing unsafe layout work, e.g. std140
// buffer builders), its Go type and its flags.
type FieldDesc struct {
	Name   string
	Offset uintptr
	Type   reflect.Type
	Flags  FieldFlag
}

func (f FieldDesc) Has(flag FieldFlag) bool { return f.Flags&flag != 0 }

// FieldByName finds a registered field by name, preserving the fields'
// registration order (the order a ClassDesc.Fields walk or a ReadInto pass
// visits them in) rather than requiring callers to build their own index.
func (d *ClassDesc) FieldByName(name string) (FieldDesc, bool) {
	i := slices.IndexFunc(d.Fields, func(f FieldDesc) bool { return f.Name == name })
	if i < 0 {
		return FieldDesc{}, false
	}
	return d.Fields[i], true
}

// ClassDesc is one registered class/struct: its tag, its Go shape, an
// optional parent tag (single inheritance, as the spec's polymorphic asset
// hierarchy assumes) and a factory producing a zero-value instance.
type ClassDesc struct {
	Tag     Strid
	GoType  reflect.Type
	Parent  Strid
	Factory func() interface{}
	Fields  []FieldDesc
}

// Registry is a process-level, build-once type registry: classes register
// at init, the registry is "built" and thereafter read-only — the Go
// analogue of the source's macro-driven RTTI registration.
type Registry struct {
	mu      sync.RWMutex
	classes map[Strid]*ClassDesc
	built   bool
}

func NewRegistry() *Registry {
	return &Registry{classes: make(map[Strid]*ClassDesc)}
}

// Register adds a class descriptor. After Build it returns an InvalidState
// error (and an InvalidParameter error for a tag already registered); the
// registry is assembled once at process init and read concurrently
// thereafter.
func (r *Registry) Register(desc *ClassDesc) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.built {
		return status.New(status.InvalidState, "registry already built, cannot register %s", desc.Tag)
	}
	if _, exists := r.classes[desc.Tag]; exists {
		return status.New(status.InvalidParameter, "class %s already registered", desc.Tag)
	}
	r.classes[desc.Tag] = desc
	return nil
}

// Build freezes the registry against further registration.
func (r *Registry) Build() {
	r.mu.Lock()
	r.built = true
	r.mu.Unlock()
}

func (r *Registry) Lookup(tag Strid) (*ClassDesc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.classes[tag]
	return d, ok
}

// Tags enumerates every registered class tag in a stable, deterministic
// order. The registry itself is a plain map, so without this callers that
// walk the whole class set (tooling that lists every asset kind, or tests
// asserting on registration order) would see map iteration's randomized
// order instead.
func (r *Registry) Tags() []Strid {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tags := make([]Strid, 0, len(r.classes))
	for tag := range r.classes {
		tags = append(tags, tag)
	}
	slices.SortFunc(tags, func(a, b Strid) int {
		switch {
		case a.String() < b.String():
			return -1
		case a.String() > b.String():
			return 1
		default:
			return 0
		}
	})
	return tags
}

// NewInstance produces a fresh instance of the class tagged `tag` via its
// registered factory.
func (r *Registry) NewInstance(tag Strid) (interface{}, error) {
	d, ok := r.Lookup(tag)
	if !ok {
		return nil, status.New(status.NoClass, "no class registered for tag %s", tag)
	}
	return d.Factory(), nil
}

// ReadInto walks desc's fields and populates obj (a pointer to desc's
// GoType) from c. A missing Optional field is not an error; anything else
// missing is FailedParse (spec §4.3).
func ReadInto(desc *ClassDesc, c *ioblob.Cursor, obj interface{}) error {
	rv := reflect.ValueOf(obj)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return status.New(status.InvalidParameter, "ReadInto requires a non-nil pointer")
	}
	elem := rv.Elem()

	for _, f := range desc.Fields {
		if f.Has(FieldNoSaveLoad) {
			continue
		}
		v, ok := c.ReadValue(f.Name)
		if !ok {
			if f.Has(FieldOptional) {
				continue
			}
			return status.New(status.FailedParse, "missing required field %q", f.Name)
		}
		fv := elem.FieldByName(f.Name)
		if !fv.IsValid() || !fv.CanSet() {
			return status.New(status.FailedParse, "field %q is not settable", f.Name)
		}
		if err := assignValue(fv, v); err != nil {
			return status.Wrap(status.FailedParse, err, "field %q", f.Name)
		}
	}
	return nil
}

// WriteFrom walks desc's fields and writes obj's values into c, omitting
// fields tagged NoSaveLoad.
func WriteFrom(desc *ClassDesc, c *ioblob.Cursor, obj interface{}) error {
	rv := reflect.ValueOf(obj)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}

	for _, f := range desc.Fields {
		if f.Has(FieldNoSaveLoad) {
			continue
		}
		fv := rv.FieldByName(f.Name)
		if !fv.IsValid() {
			continue
		}
		v, err := toValue(fv)
		if err != nil {
			return status.Wrap(status.FailedEncode, err, "field %q", f.Name)
		}
		c.WriteValue(f.Name, v)
	}
	return nil
}

func assignValue(fv reflect.Value, v ioblob.Value) error {
	switch fv.Kind() {
	case reflect.Bool:
		if v.Kind != ioblob.KindBool {
			return status.New(status.FailedParse, "expected bool")
		}
		fv.SetBool(v.Bool())
	case reflect.Int32, reflect.Int:
		if v.Kind != ioblob.KindInt32 {
			return status.New(status.FailedParse, "expected int32")
		}
		fv.SetInt(int64(v.Int32()))
	case reflect.Int16:
		if v.Kind != ioblob.KindInt16 {
			return status.New(status.FailedParse, "expected int16")
		}
		fv.SetInt(int64(v.Int16()))
	case reflect.Uint32:
		if v.Kind != ioblob.KindUint32 {
			return status.New(status.FailedParse, "expected uint32")
		}
		fv.SetUint(uint64(v.Uint32()))
	case reflect.Uint64:
		if v.Kind != ioblob.KindUsize {
			return status.New(status.FailedParse, "expected usize")
		}
		fv.SetUint(v.Usize())
	case reflect.Float32, reflect.Float64:
		if v.Kind != ioblob.KindFloat {
			return status.New(status.FailedParse, "expected float")
		}
		fv.SetFloat(v.Float())
	case reflect.String:
		if v.Kind != ioblob.KindString && v.Kind != ioblob.KindInternedString {
			return status.New(status.FailedParse, "expected string")
		}
		fv.SetString(v.String())
	default:
		return status.New(status.FailedParse, "unsupported field kind %s", fv.Kind())
	}
	return nil
}

func toValue(fv reflect.Value) (ioblob.Value, error) {
	switch fv.Kind() {
	case reflect.Bool:
		return ioblob.BoolValue(fv.Bool()), nil
	case reflect.Int32, reflect.Int:
		return ioblob.Int32Value(int32(fv.Int())), nil
	case reflect.Int16:
		return ioblob.Int16Value(int16(fv.Int())), nil
	case reflect.Uint32:
		return ioblob.Uint32Value(uint32(fv.Uint())), nil
	case reflect.Uint64:
		return ioblob.UsizeValue(fv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return ioblob.FloatValue(fv.Float()), nil
	case reflect.String:
		return ioblob.StringValue(fv.String()), nil
	default:
		return ioblob.Value{}, status.New(status.FailedEncode, "unsupported field kind %s", fv.Kind())
	}
}
