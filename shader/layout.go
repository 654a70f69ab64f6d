package shader

// layoutRules captures the one axis that distinguishes std140 from std430:
// std140 (uniform buffers) rounds array strides and struct/array alignment
// up to 16 bytes; std430 (storage buffers) uses each member's natural
// alignment. Both rules agree on scalar/vector/matrix base alignment,
// following the GLSL interface-block layout rules.
type layoutRules struct {
	std140 bool
}

func rulesFor(kind BindingKind) layoutRules {
	return layoutRules{std140: kind == BindingUniformBuffer}
}

func roundUp(n, align uint32) uint32 {
	if align == 0 {
		return n
	}
	return (n + align - 1) / align * align
}

// scalarAlignSize gives the base alignment and size of a primitive type.
// vec3 aligns like vec4 (16 bytes) but only occupies 12; mat4 is stored as
// four vec4-aligned columns.
func scalarAlignSize(vt ValueType) (align, size uint32) {
	switch vt {
	case TypeFloat, TypeInt, TypeUint:
		return 4, 4
	case TypeVec2:
		return 8, 8
	case TypeVec3:
		return 16, 12
	case TypeVec4:
		return 16, 16
	case TypeMat4:
		return 16, 64
	}
	return vt.Size(), vt.Size()
}

// layoutType recursively computes Align/Size for t and, for KindStruct,
// each field's ByteOffset, per rules.
func layoutType(t ShaderType, rules layoutRules) ShaderType {
	switch t.Kind {
	case KindScalar:
		t.Align, t.Size = scalarAlignSize(t.Scalar)
		return t

	case KindArray:
		elem := layoutType(*t.Elem, rules)
		t.Elem = &elem

		stride := elem.Size
		align := elem.Align
		if rules.std140 {
			stride = roundUp(stride, 16)
			align = roundUp(align, 16)
		}
		t.Align = align
		t.Size = stride * uint32(t.ArrayLen)
		return t

	case KindStruct:
		var offset uint32
		maxAlign := uint32(1)
		fields := make([]ShaderField, len(t.Fields))
		for i, f := range t.Fields {
			f.Type = layoutType(f.Type, rules)
			offset = roundUp(offset, f.Type.Align)
			f.ByteOffset = offset
			offset += f.Type.Size
			if f.Type.Align > maxAlign {
				maxAlign = f.Type.Align
			}
			fields[i] = f
		}
		if rules.std140 {
			maxAlign = roundUp(maxAlign, 16)
		}
		t.Fields = fields
		t.Align = maxAlign
		t.Size = roundUp(offset, maxAlign)
		return t
	}
	return t
}

// LayoutType fills in byte-exact std140 (uniform buffer) or std430 (storage
// buffer) alignment, size and field offsets for t, keyed off the binding
// kind it belongs to (spec §3: "std140/std430 alignment applies in
// buffers").
func LayoutType(t ShaderType, kind BindingKind) ShaderType {
	return layoutType(t, rulesFor(kind))
}

// flattenParams walks a laid-out ShaderType and appends one ShaderParamInfo
// leaf per reachable parameter (spec §4.8 phase 1 step 4: "flatten every
// parameter exposed through a buffer into the dense params_info table").
// KindStruct recurses with a dotted name path ("Lights.color") and a
// cumulative byte offset; KindArray is treated as a single leaf naming the
// whole array rather than unrolled per element, since draw-time code
// addresses array elements by integer index, not by a synthesized
// per-element parameter name.
func flattenParams(name string, t ShaderType, spaceIdx int, slot uint16, baseOffset uint32, out []ShaderParamInfo) []ShaderParamInfo {
	if t.Kind == KindStruct {
		for _, f := range t.Fields {
			out = flattenParams(name+"."+f.Name, f.Type, spaceIdx, slot, baseOffset+f.ByteOffset, out)
		}
		return out
	}
	return append(out, ShaderParamInfo{
		Name: name, SpaceIndex: spaceIdx, Slot: slot,
		Type: t, ByteOffset: baseOffset,
	})
}
