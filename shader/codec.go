package shader

import (
	"github.com/ember-forge/pipeline/ioblob"
)

// EncodeReflection serializes a Reflection into an ioblob tree, the shape
// the importer writes as a shader asset's artifact and the loader reads
// back, avoiding a second reflection pass at load time.
func EncodeReflection(r *Reflection) *ioblob.Tree {
	tree := ioblob.CreateTree()
	c := tree.Cursor()

	c.AppendChild("spaces", ioblob.KindList)
	for _, space := range r.Spaces {
		c.AppendChild("", ioblob.KindMap)
		c.WriteValue("name", ioblob.StringValue(space.Name))
		c.WriteValue("index", ioblob.Int32Value(int32(space.Index)))
		c.AppendChild("bindings", ioblob.KindList)
		for _, b := range space.Bindings {
			c.AppendChild("", ioblob.KindMap)
			c.WriteValue("name", ioblob.StringValue(b.Name))
			c.WriteValue("slot", ioblob.Int32Value(int32(b.Slot)))
			c.WriteValue("kind", ioblob.Int32Value(int32(b.Kind)))
			c.AppendChild("type", ioblob.KindMap)
			encodeShaderType(c, b.Type)
			c.Pop()
			c.Pop()
		}
		c.Pop() // bindings
		c.Pop() // space
	}
	c.Pop() // spaces

	c.AppendChild("techniques", ioblob.KindList)
	for _, tech := range r.Techniques {
		c.AppendChild("", ioblob.KindMap)
		c.WriteValue("name", ioblob.StringValue(tech.Name))
		c.AppendChild("passes", ioblob.KindList)
		for _, p := range tech.Passes {
			c.AppendChild("", ioblob.KindMap)
			c.WriteValue("name", ioblob.StringValue(p.Name))
			c.AppendChild("options", ioblob.KindList)
			for _, o := range p.Options {
				c.AppendChild("", ioblob.KindMap)
				c.WriteValue("name", ioblob.StringValue(o.Name))
				c.WriteValue("bit_offset", ioblob.Int32Value(int32(o.BitOffset)))
				c.WriteValue("bit_width", ioblob.Int32Value(int32(o.BitWidth)))
				c.AppendChild("variants", ioblob.KindList)
				for _, v := range o.Variants {
					n := c.AppendChild("", ioblob.KindString)
					n.Value = ioblob.StringValue(v)
					c.Pop()
				}
				c.Pop() // variants
				c.Pop() // option
			}
			c.Pop() // options
			c.AppendChild("vertex_attributes", ioblob.KindList)
			for _, a := range p.VertexAttributes {
				n := c.AppendChild("", ioblob.KindString)
				n.Value = ioblob.StringValue(a)
				c.Pop()
			}
			c.Pop() // vertex_attributes
			c.Pop() // pass
		}
		c.Pop() // passes
		c.Pop() // technique
	}
	c.Pop() // techniques

	c.AppendChild("sources", ioblob.KindMap)
	for stage, src := range r.Sources {
		c.WriteValue(stage, ioblob.StringValue(src))
	}
	c.Pop()

	return tree
}

// encodeShaderType writes t's structural shape (kind, scalar tag, array
// length/element, or ordered struct fields) under the cursor's current
// node. Align/Size/ByteOffset are derived, not encoded: decodeShaderType
// rebuilds the bare shape and DecodeReflection reruns LayoutType over it.
func encodeShaderType(c *ioblob.Cursor, t ShaderType) {
	c.WriteValue("kind", ioblob.Int32Value(int32(t.Kind)))
	switch t.Kind {
	case KindScalar:
		c.WriteValue("scalar", ioblob.Int32Value(int32(t.Scalar)))
	case KindArray:
		c.WriteValue("array_len", ioblob.Int32Value(int32(t.ArrayLen)))
		c.AppendChild("elem", ioblob.KindMap)
		encodeShaderType(c, *t.Elem)
		c.Pop()
	case KindStruct:
		c.AppendChild("fields", ioblob.KindList)
		for _, f := range t.Fields {
			c.AppendChild("", ioblob.KindMap)
			c.WriteValue("name", ioblob.StringValue(f.Name))
			if f.Default != nil {
				c.WriteValue("default", ioblob.StringValue(string(f.Default)))
			}
			c.AppendChild("type", ioblob.KindMap)
			encodeShaderType(c, f.Type)
			c.Pop()
			c.Pop()
		}
		c.Pop()
	}
}

func decodeShaderType(c *ioblob.Cursor) ShaderType {
	var t ShaderType
	if v, ok := c.ReadValue("kind"); ok {
		t.Kind = TypeKind(v.Int32())
	}
	switch t.Kind {
	case KindScalar:
		if v, ok := c.ReadValue("scalar"); ok {
			t.Scalar = ValueType(v.Int32())
		}
	case KindArray:
		if v, ok := c.ReadValue("array_len"); ok {
			t.ArrayLen = int(v.Int32())
		}
		if c.FindChild("elem") {
			elem := decodeShaderType(c)
			t.Elem = &elem
			c.Pop()
		}
	case KindStruct:
		if c.FindChild("fields") {
			if c.FirstChild() {
				for {
					var f ShaderField
					if v, ok := c.ReadValue("name"); ok {
						f.Name = v.String()
					}
					if v, ok := c.ReadValue("default"); ok {
						f.Default = []byte(v.String())
					}
					if c.FindChild("type") {
						f.Type = decodeShaderType(c)
						c.Pop()
					}
					t.Fields = append(t.Fields, f)
					if !c.NextSibling() {
						break
					}
				}
				c.Pop()
			}
			c.Pop()
		}
	}
	return t
}

// DecodeReflection is EncodeReflection's inverse.
func DecodeReflection(tree *ioblob.Tree) (*Reflection, error) {
	c := tree.Cursor()
	r := &Reflection{Techniques: make(map[string]*ShaderTechnique), ParamsId: make(map[string]int), Sources: make(map[string]string)}

	if c.FindChild("spaces") {
		if c.FirstChild() {
			for {
				var space ShaderSpace
				if v, ok := c.ReadValue("name"); ok {
					space.Name = v.String()
				}
				if v, ok := c.ReadValue("index"); ok {
					space.Index = int(v.Int32())
				}
				if c.FindChild("bindings") {
					if c.FirstChild() {
						for {
							var b ShaderBinding
							if v, ok := c.ReadValue("name"); ok {
								b.Name = v.String()
							}
							if v, ok := c.ReadValue("slot"); ok {
								b.Slot = uint16(v.Int32())
							}
							if v, ok := c.ReadValue("kind"); ok {
								b.Kind = BindingKind(v.Int32())
							}
							if c.FindChild("type") {
								b.Type = LayoutType(decodeShaderType(c), b.Kind)
								c.Pop()
							}
							space.Bindings = append(space.Bindings, b)
							if !c.NextSibling() {
								break
							}
						}
						c.Pop()
					}
					c.Pop()
				}
				r.Spaces = append(r.Spaces, space)
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
				tech := &ShaderTechnique{}
				if v, ok := c.ReadValue("name"); ok {
					tech.Name = v.String()
				}
				if c.FindChild("passes") {
					if c.FirstChild() {
						for {
							pass := &ShaderPass{Technique: tech.Name, Sources: r.Sources}
							if v, ok := c.ReadValue("name"); ok {
								pass.Name = v.String()
							}
							if c.FindChild("options") {
								if c.FirstChild() {
									for {
										var o ShaderOption
										if v, ok := c.ReadValue("name"); ok {
											o.Name = v.String()
										}
										if v, ok := c.ReadValue("bit_offset"); ok {
											o.BitOffset = int(v.Int32())
										}
										if v, ok := c.ReadValue("bit_width"); ok {
											o.BitWidth = int(v.Int32())
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
										pass.Options = append(pass.Options, o)
										if !c.NextSibling() {
											break
										}
									}
									c.Pop()
								}
								c.Pop()
							}
							if c.FindChild("vertex_attributes") {
								if c.FirstChild() {
									for {
										pass.VertexAttributes = append(pass.VertexAttributes, c.Current().Value.String())
										if !c.NextSibling() {
											break
										}
									}
									c.Pop()
								}
								c.Pop()
							}
							tech.Passes = append(tech.Passes, pass)
							if !c.NextSibling() {
								break
							}
						}
						c.Pop()
					}
					c.Pop()
				}
				r.Techniques[tech.Name] = tech
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
				r.Sources[c.Current().Name] = c.Current().Value.String()
				if !c.NextSibling() {
					break
				}
			}
			c.Pop()
		}
		c.Pop()
	}

	// ParamsInfo/Defaults are runtime-derived from Spaces and are not
	// round-tripped; loaders rebuild them from Spaces on demand via
	// RebuildParams.
	r.RebuildParams()

	return r, nil
}

// RebuildParams recomputes ParamsInfo/ParamsId/Defaults from Spaces,
// mirroring the flattening reflection phase 1 step 4/5 perform at import
// time, so a decoded Reflection exposes the same by-name lookup surface a
// freshly-reflected one does. Each buffer binding's ShaderType is already
// laid out (DecodeReflection runs LayoutType per binding), so this only
// flattens; it never recomputes alignment.
func (r *Reflection) RebuildParams() {
	r.ParamsInfo = nil
	r.ParamsId = make(map[string]int)
	r.Defaults = nil
	for _, space := range r.Spaces {
		for _, b := range space.Bindings {
			if b.Kind == BindingUniformBuffer || b.Kind == BindingStorageBuffer {
				before := len(r.ParamsInfo)
				r.ParamsInfo = flattenParams(b.Name, b.Type, space.Index, b.Slot, 0, r.ParamsInfo)
				for i := before; i < len(r.ParamsInfo); i++ {
					r.ParamsId[r.ParamsInfo[i].Name] = i
				}
				if b.Kind == BindingUniformBuffer {
					r.Defaults = append(r.Defaults, BufferDefault{SpaceIndex: space.Index, Slot: b.Slot, Bytes: make([]byte, b.Type.Size)})
				}
			} else {
				r.ParamsId[b.Name] = len(r.ParamsInfo)
				r.ParamsInfo = append(r.ParamsInfo, ShaderParamInfo{Name: b.Name, SpaceIndex: space.Index, Slot: b.Slot})
			}
		}
	}
}
