package shader

import (
	"github.com/ember-forge/pipeline/internal/status"
	"github.com/ember-forge/pipeline/ioblob"
)

// maxOptionBits is the per-pass option-bit budget named in spec §4.8 phase 1.
const maxOptionBits = 64

// ShaderFile is the as-authored document, parsed straight from the YAML
// tree without any cross-reference resolution: one YAML ".shader" file
// maps onto exactly one ShaderFile.
type ShaderFile struct {
	Extends    string
	Spaces     []rawSpace
	Techniques []rawTechnique
	Sources    map[string]string
}

type rawBinding struct {
	Name string
	Kind string
	Type rawType
}

type rawSpace struct {
	Name     string
	Bindings []rawBinding
}

// rawType is the as-authored shape of a buffer-addressable value: either a
// bare scalar type name, an array of some element rawType with a fixed
// count, or an ordered struct of named rawFields. Exactly one of Scalar,
// Array or Struct is populated.
type rawType struct {
	Scalar string
	Array  *rawType
	Count  int
	Struct []rawField
}

// rawField is one ordered member of a struct rawType.
type rawField struct {
	Name    string
	Type    rawType
	Default string
}

type rawOption struct {
	Name     string
	Variants []string
}

type rawPass struct {
	Name             string
	Options          []rawOption
	VertexAttributes []string
}

type rawTechnique struct {
	Name    string
	Options []rawOption
	Passes  []rawPass
}

// ParseShaderFile reads the YAML ".shader" document through ioblob's tree
// backend (spec's DOMAIN STACK: gopkg.in/yaml.v3 via the ioblob substrate,
// not a bespoke YAML unmarshal), grounded on gazed-vu's load/shd.go shader
// description parsing.
func ParseShaderFile(data []byte) (*ShaderFile, error) {
	backend := ioblob.YAMLBackend{}
	tree, err := backend.Parse(data)
	if err != nil {
		return nil, err
	}
	c := tree.Cursor()

	sf := &ShaderFile{Sources: map[string]string{}}
	if v, ok := c.ReadValue("extends"); ok {
		sf.Extends = v.String()
	}

	if c.FindChild("spaces") {
		if c.FirstChild() {
			for {
				sf.Spaces = append(sf.Spaces, parseRawSpace(c))
				if !c.NextSibling() {
					break
				}
			}
			c.Pop()
		}
		c.Pop()
	}

	if c.FindChild("techniques") {
		if c.FirstChild() {
			for {
				sf.Techniques = append(sf.Techniques, parseRawTechnique(c))
				if !c.NextSibling() {
					break
				}
			}
			c.Pop()
		}
		c.Pop()
	}

	if c.FindChild("sources") {
		if c.FirstChild() {
			for {
				sf.Sources[c.Current().Name] = c.Current().Value.String()
				if !c.NextSibling() {
					break
				}
			}
			c.Pop()
		}
		c.Pop()
	}

	return sf, nil
}

func parseRawSpace(c *ioblob.Cursor) rawSpace {
	var s rawSpace
	if v, ok := c.ReadValue("name"); ok {
		s.Name = v.String()
	}
	if c.FindChild("bindings") {
		if c.FirstChild() {
			for {
				var b rawBinding
				if v, ok := c.ReadValue("name"); ok {
					b.Name = v.String()
				}
				if v, ok := c.ReadValue("kind"); ok {
					b.Kind = v.String()
				}
				if c.FindChild("type") {
					b.Type = parseRawType(c)
					c.Pop()
				}
				s.Bindings = append(s.Bindings, b)
				if !c.NextSibling() {
					break
				}
			}
			c.Pop()
		}
		c.Pop()
	}
	return s
}

// parseRawType parses the node the cursor currently sits on into a rawType.
// A bare scalar name ("mat4") is a string leaf; "array"/"count" and
// "struct" keys on a map node build the recursive shapes.
func parseRawType(c *ioblob.Cursor) rawType {
	cur := c.Current()
	if cur.Kind == ioblob.KindString || cur.Kind == ioblob.KindInternedString {
		return rawType{Scalar: cur.Value.String()}
	}

	var rt rawType
	if c.FindChild("struct") {
		if c.FirstChild() {
			for {
				var f rawField
				if v, ok := c.ReadValue("name"); ok {
					f.Name = v.String()
				}
				if c.FindChild("type") {
					f.Type = parseRawType(c)
					c.Pop()
				}
				if v, ok := c.ReadValue("default"); ok {
					f.Default = v.String()
				}
				rt.Struct = append(rt.Struct, f)
				if !c.NextSibling() {
					break
				}
			}
			c.Pop()
		}
		c.Pop()
		return rt
	}

	if c.FindChild("array") {
		elem := parseRawType(c)
		c.Pop()
		rt.Array = &elem
		if v, ok := c.ReadValue("count"); ok {
			rt.Count = int(v.Int32())
		}
	}
	return rt
}

// buildShaderType turns a parsed rawType into an unlaid-out ShaderType
// (ByteOffset and struct/array Align/Size stay zero until LayoutType runs
// over it; scalar leaves already carry their natural Align/Size).
func buildShaderType(rt rawType) (ShaderType, error) {
	switch {
	case rt.Struct != nil:
		fields := make([]ShaderField, 0, len(rt.Struct))
		for _, rf := range rt.Struct {
			ft, err := buildShaderType(rf.Type)
			if err != nil {
				return ShaderType{}, status.Wrap(status.InvalidData, err, "field %q", rf.Name)
			}
			var def []byte
			if rf.Default != "" {
				def = []byte(rf.Default)
			}
			fields = append(fields, ShaderField{Name: rf.Name, Type: ft, Default: def})
		}
		return ShaderType{Kind: KindStruct, Fields: fields}, nil

	case rt.Array != nil:
		elem, err := buildShaderType(*rt.Array)
		if err != nil {
			return ShaderType{}, err
		}
		if rt.Count <= 0 {
			return ShaderType{}, status.New(status.InvalidData, "array type needs a positive count, got %d", rt.Count)
		}
		return ShaderType{Kind: KindArray, Elem: &elem, ArrayLen: rt.Count}, nil

	default:
		vt, ok := valueTypeFromString(rt.Scalar)
		if !ok {
			return ShaderType{}, status.New(status.InvalidData, "unknown scalar type %q", rt.Scalar)
		}
		return ScalarType(vt), nil
	}
}

func parseRawOptions(c *ioblob.Cursor) []rawOption {
	var opts []rawOption
	if !c.FindChild("options") {
		return nil
	}
	if c.FirstChild() {
		for {
			var o rawOption
			if v, ok := c.ReadValue("name"); ok {
				o.Name = v.String()
			}
			if c.FindChild("variants") {
				if c.FirstChild() {
					for {
						o.Variants = append(o.Variants, c.Current().Value.String())
						if !c.NextSibling() {
							break
						}
					}
					c.Pop()
				}
				c.Pop()
			}
			opts = append(opts, o)
			if !c.NextSibling() {
				break
			}
		}
		c.Pop()
	}
	c.Pop()
	return opts
}

func parseRawTechnique(c *ioblob.Cursor) rawTechnique {
	var t rawTechnique
	if v, ok := c.ReadValue("name"); ok {
		t.Name = v.String()
	}
	t.Options = parseRawOptions(c)

	if c.FindChild("passes") {
		if c.FirstChild() {
			for {
				var p rawPass
				if v, ok := c.ReadValue("name"); ok {
					p.Name = v.String()
				}
				p.Options = parseRawOptions(c)
				if c.FindChild("vertex_attributes") {
					if c.FirstChild() {
						for {
							p.VertexAttributes = append(p.VertexAttributes, c.Current().Value.String())
							if !c.NextSibling() {
								break
							}
						}
						c.Pop()
					}
					c.Pop()
				}
				t.Passes = append(t.Passes, p)
				if !c.NextSibling() {
					break
				}
			}
			c.Pop()
		}
		c.Pop()
	}
	return t
}

// Reflection is the fully expanded, cross-referenced result of phase 1:
// spaces/bindings with assigned indices, techniques/passes with assigned
// option bits, the flattened parameter table, and per-binding defaults.
type Reflection struct {
	Spaces     []ShaderSpace
	Techniques map[string]*ShaderTechnique
	ParamsInfo []ShaderParamInfo
	ParamsId   map[string]int
	Defaults   []BufferDefault
	Sources    map[string]string
}

func bindingKindFromString(s string) (BindingKind, bool) {
	switch s {
	case "uniform_buffer":
		return BindingUniformBuffer, true
	case "storage_buffer":
		return BindingStorageBuffer, true
	case "texture2d":
		return BindingTexture2D, true
	case "texturecube":
		return BindingTextureCube, true
	case "sampler":
		return BindingSampler, true
	}
	return 0, false
}

func valueTypeFromString(s string) (ValueType, bool) {
	switch s {
	case "float":
		return TypeFloat, true
	case "int":
		return TypeInt, true
	case "uint":
		return TypeUint, true
	case "vec2":
		return TypeVec2, true
	case "vec3":
		return TypeVec3, true
	case "vec4":
		return TypeVec4, true
	case "mat4":
		return TypeMat4, true
	}
	return 0, false
}

// Reflect expands a ShaderFile into a Reflection (spec §4.8 phase 1).
// resolveExtends looks up a named base ShaderFile for the `extends` union;
// pass nil when the file has no base.
func Reflect(file *ShaderFile, resolveExtends func(name string) (*ShaderFile, bool)) (*Reflection, error) {
	merged := *file
	if file.Extends != "" {
		if resolveExtends == nil {
			return nil, status.New(status.InvalidData, "shader extends %q but no base resolver given", file.Extends)
		}
		base, ok := resolveExtends(file.Extends)
		if !ok {
			return nil, status.New(status.InvalidData, "shader base %q not found", file.Extends)
		}
		merged.Spaces = append(append([]rawSpace{}, base.Spaces...), file.Spaces...)
		merged.Techniques = append(append([]rawTechnique{}, base.Techniques...), file.Techniques...)
		merged.Sources = mergeSources(base.Sources, file.Sources)
	}

	r := &Reflection{
		Techniques: make(map[string]*ShaderTechnique),
		ParamsId:   make(map[string]int),
		Sources:    merged.Sources,
	}

	// Step 2: spaces get a dense index in declaration order; within a space,
	// bindings get a dense 16-bit slot index in declaration order. Each
	// buffer binding is its own independently-addressed memory region, so
	// its ShaderType is laid out from byte offset zero rather than chained
	// onto whatever came before it in the space.
	for spaceIdx, rs := range merged.Spaces {
		space := ShaderSpace{Name: rs.Name, Index: spaceIdx}
		for slot, rb := range rs.Bindings {
			kind, ok := bindingKindFromString(rb.Kind)
			if !ok {
				return nil, status.New(status.InvalidData, "space %q binding %q has unknown kind %q", rs.Name, rb.Name, rb.Kind)
			}
			binding := ShaderBinding{Name: rb.Name, Slot: uint16(slot), Kind: kind}

			if kind == BindingUniformBuffer || kind == BindingStorageBuffer {
				st, err := buildShaderType(rb.Type)
				if err != nil {
					return nil, status.Wrap(status.InvalidData, err, "space %q binding %q", rs.Name, rb.Name)
				}
				st = LayoutType(st, kind)
				binding.Type = st

				// Step 4: flatten buffer-backed bindings into params_info,
				// one leaf per struct field (dotted path) or one leaf for a
				// bare scalar/array binding.
				before := len(r.ParamsInfo)
				r.ParamsInfo = flattenParams(rb.Name, st, spaceIdx, uint16(slot), 0, r.ParamsInfo)
				for i := before; i < len(r.ParamsInfo); i++ {
					r.ParamsId[r.ParamsInfo[i].Name] = i
				}

				if kind == BindingUniformBuffer {
					// Step 5: zero-valued default image, ready to copy on
					// first instantiation; importers/authors override bytes
					// via the asset's inline import_data, not reflected here.
					r.Defaults = append(r.Defaults, BufferDefault{
						SpaceIndex: spaceIdx, Slot: uint16(slot), Bytes: make([]byte, st.Size),
					})
				}
			} else {
				// Step 4: texture/sampler bindings are also addressable params.
				r.ParamsId[rb.Name] = len(r.ParamsInfo)
				r.ParamsInfo = append(r.ParamsInfo, ShaderParamInfo{
					Name: rb.Name, SpaceIndex: spaceIdx, Slot: uint16(slot),
				})
			}

			space.Bindings = append(space.Bindings, binding)
		}
		r.Spaces = append(r.Spaces, space)
	}

	// Step 3: for every pass, union its options with its technique's
	// options, assign dense slot indices, and allocate option bits
	// sequentially within the 64-bit per-pass budget.
	for _, rt := range merged.Techniques {
		tech := &ShaderTechnique{Name: rt.Name}
		tech.Options = reflectOptions(rt.Options, 0)

		for _, rp := range rt.Passes {
			pass := &ShaderPass{
				Name: rp.Name, Technique: rt.Name,
				VertexAttributes: rp.VertexAttributes,
				Sources:          merged.Sources,
			}
			combined := append(append([]rawOption{}, rt.Options...), rp.Options...)
			opts := reflectOptions(combined, 0)
			bits := 0
			for i := range opts {
				opts[i].BitOffset = bits
				bits += opts[i].BitWidth
			}
			if bits > maxOptionBits {
				return nil, status.New(status.InvalidData, "pass %q/%q exceeds the %d-bit option budget (%d)", rt.Name, rp.Name, maxOptionBits, bits)
			}
			pass.Options = opts
			tech.Passes = append(tech.Passes, pass)
		}
		r.Techniques[rt.Name] = tech
	}

	return r, nil
}

func mergeSources(base, override map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}

func reflectOptions(raw []rawOption, startBit int) []ShaderOption {
	out := make([]ShaderOption, 0, len(raw))
	for i, ro := range raw {
		width := bitWidth(len(ro.Variants))
		out = append(out, ShaderOption{
			Name: ro.Name, Variants: ro.Variants, SlotIndex: i, BitWidth: width,
		})
	}
	return out
}

func bitWidth(numVariants int) int {
	if numVariants <= 1 {
		return 1
	}
	w := 0
	for (1 << w) < numVariants {
		w++
	}
	return w
}
