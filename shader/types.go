// Package shader is the densest component of the pipeline: YAML shader
// description reflection, permutation selection, a two-level compile cache
// and the compiler-adapter seam (spec §4.8), grounded on the teacher's
// engine/renderer/metadata/shader.go and engine/systems/shader.go plus
// original_source/engine/grc/shader_file.hpp and engine/resource/shader.hpp.
package shader

// BindingKind is the small set of resource kinds a space binding can carry.
type BindingKind uint8

const (
	BindingUniformBuffer BindingKind = iota
	BindingStorageBuffer
	BindingTexture2D
	BindingTextureCube
	BindingSampler
)

// ValueType names the scalar/vector/matrix shape of a primitive leaf within
// a ShaderType tree.
type ValueType uint8

const (
	TypeFloat ValueType = iota
	TypeInt
	TypeUint
	TypeVec2
	TypeVec3
	TypeVec4
	TypeMat4
)

var valueTypeSizes = map[ValueType]uint32{
	TypeFloat: 4, TypeInt: 4, TypeUint: 4,
	TypeVec2: 8, TypeVec3: 12, TypeVec4: 16, TypeMat4: 64,
}

func (t ValueType) Size() uint32 { return valueTypeSizes[t] }

// TypeKind discriminates a ShaderType's shape: a bare scalar/vector/matrix,
// a fixed-length array of some element type, or an ordered struct of named
// fields (§3: "recursive: primitive ... struct (ordered fields with offset,
// element type, array count, default)").
type TypeKind uint8

const (
	KindScalar TypeKind = iota
	KindArray
	KindStruct
)

// ShaderType is a buffer-addressable value's shape. A scalar leaf wraps a
// ValueType; an array wraps a fixed-length run of one element ShaderType;
// a struct holds an ordered list of named Fields, each itself a full
// ShaderType so structs nest arbitrarily. LayoutType fills in every Fields
// entry's ByteOffset (and a struct/array's own Align/Size) according to a
// std140 or std430 buffer layout; a freshly-built ShaderType (straight out
// of buildShaderType) carries zero offsets until laid out.
type ShaderType struct {
	Kind    TypeKind
	Scalar  ValueType    // meaningful when Kind == KindScalar
	Elem    *ShaderType  // meaningful when Kind == KindArray
	ArrayLen int         // meaningful when Kind == KindArray
	Fields  []ShaderField // meaningful when Kind == KindStruct

	Align uint32 // alignment in bytes, computed by LayoutType
	Size  uint32 // size in bytes, computed by LayoutType (stride × ArrayLen for KindArray)
}

// ShaderField is one ordered, named member of a KindStruct ShaderType.
type ShaderField struct {
	Name       string
	Type       ShaderType
	ByteOffset uint32
	Default    []byte // optional default bytes, nil if unset
}

// ScalarType builds a leaf ShaderType wrapping a primitive ValueType.
func ScalarType(vt ValueType) ShaderType {
	return ShaderType{Kind: KindScalar, Scalar: vt, Align: vt.Size(), Size: vt.Size()}
}

// IsPrimitive reports whether t is an unlaid-out-or-laid-out scalar of the
// given ValueType, the common case test code and simple bindings care about.
func (t ShaderType) IsPrimitive(vt ValueType) bool {
	return t.Kind == KindScalar && t.Scalar == vt
}

// Equal does a structural deep-equality check, ignoring computed Align/Size
// so two types parsed from equivalent but not yet laid-out descriptions
// still compare equal.
func (t ShaderType) Equal(o ShaderType) bool {
	if t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case KindScalar:
		return t.Scalar == o.Scalar
	case KindArray:
		if t.ArrayLen != o.ArrayLen {
			return false
		}
		if t.Elem == nil || o.Elem == nil {
			return t.Elem == o.Elem
		}
		return t.Elem.Equal(*o.Elem)
	case KindStruct:
		if len(t.Fields) != len(o.Fields) {
			return false
		}
		for i := range t.Fields {
			if t.Fields[i].Name != o.Fields[i].Name || !t.Fields[i].Type.Equal(o.Fields[i].Type) {
				return false
			}
		}
		return true
	}
	return false
}

// ShaderBinding is one resource slot within a space, assigned a dense
// 16-bit slot index in declaration order (spec §4.8 phase 1 step 2).
type ShaderBinding struct {
	Name string
	Slot uint16
	Kind BindingKind
	Type ShaderType // meaningful only for buffer-backed bindings
}

// ShaderSpace is a descriptor-set-equivalent grouping of bindings, assigned
// a dense index in declaration order.
type ShaderSpace struct {
	Name     string
	Index    int
	Bindings []ShaderBinding
}

// ShaderOption is one boolean/enum axis of variation a pass can compile
// against, assigned a dense slot index and a contiguous run of option bits
// within the pass's 64-bit budget.
type ShaderOption struct {
	Name      string
	Variants  []string // declaration-order variant names; variant 0 is "base"
	SlotIndex int
	BitOffset int
	BitWidth  int // ceil(log2(len(Variants))), minimum 1
}

// VariantIndex returns the bit pattern for variant name v, or -1 if unknown.
func (o ShaderOption) VariantIndex(v string) int {
	for i, name := range o.Variants {
		if name == v {
			return i
		}
	}
	return -1
}

// ShaderPass is one compilable unit: a technique's pass, with its own
// option set (unioned with the technique's) and the vertex attributes its
// vertex-input block requires.
type ShaderPass struct {
	Name             string
	Technique        string
	Options          []ShaderOption
	VertexAttributes []string
	Sources          map[string]string // stage name -> source text fragment
}

// OptionByName finds a pass option, reporting whether it exists.
func (p *ShaderPass) OptionByName(name string) (*ShaderOption, bool) {
	for i := range p.Options {
		if p.Options[i].Name == name {
			return &p.Options[i], true
		}
	}
	return nil, false
}

// ShaderTechnique groups passes sharing a name, plus options shared by all
// of them before each pass unions in its own (spec §4.8 phase 1 step 3).
type ShaderTechnique struct {
	Name    string
	Options []ShaderOption
	Passes  []*ShaderPass
}

func (t *ShaderTechnique) PassByName(name string) (*ShaderPass, bool) {
	for _, p := range t.Passes {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}

// ShaderParamInfo is one parameter flattened out of a uniform/storage
// buffer binding or a texture binding, ready for by-name lookup at draw
// time (spec §4.8 phase 1 step 4). A struct-typed buffer binding contributes
// one ShaderParamInfo per leaf field, named with a dotted path
// ("Lights.color"); an array-typed field flattens as a single leaf naming
// the whole array, since draw-time code addresses elements by integer index
// rather than by a synthesized per-element name.
type ShaderParamInfo struct {
	Name       string
	SpaceIndex int
	Slot       uint16
	Type       ShaderType
	ByteOffset uint32
}

// BufferDefault is the raw byte image of a uniform-buffer binding's default
// values, copied on first instantiation (spec §4.8 phase 1 step 5).
type BufferDefault struct {
	SpaceIndex int
	Slot       uint16
	Bytes      []byte
}
