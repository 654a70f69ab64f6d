package shader

import (
	"fmt"
	"sort"
	"strings"
)

// CompileRequest is the synthesized source-text input to a platform
// compiler adapter (spec §4.8 phase 4 step 2).
type CompileRequest struct {
	Platform    string
	Permutation *ShaderPermutation
	Source      string
}

// Compiler is the narrow, platform-specific adapter seam (vulkan/linux,
// vulkan/windows, vulkan/macos in the source; any other backend is equally
// valid). It produces SPIR-V-like bytecode the GPU driver accepts.
type Compiler interface {
	Platform() string
	Compile(req *CompileRequest) ([]byte, error)
}

var vertexAttributeLocations = map[string]int{
	"position": 0, "normal": 1, "texcoord": 2, "tangent": 3,
}

// vertexAttributeGLSL keys the vertex-input block's GLSL type off the
// attribute itself, so a 2-component attribute like texcoord doesn't get
// padded out to a vec3.
var vertexAttributeGLSL = map[string]string{
	"position": "vec3", "normal": "vec3", "texcoord": "vec2", "tangent": "vec3",
}

var bindingKindQualifier = map[BindingKind]string{
	BindingUniformBuffer: "uniform",
	BindingStorageBuffer: "buffer",
	BindingTexture2D:     "uniform texture2D",
	BindingTextureCube:   "uniform textureCube",
	BindingSampler:       "uniform sampler",
}

var valueTypeGLSL = map[ValueType]string{
	TypeFloat: "float", TypeInt: "int", TypeUint: "uint",
	TypeVec2: "vec2", TypeVec3: "vec3", TypeVec4: "vec4", TypeMat4: "mat4",
}

// structCollector assigns stable names to the nested struct ShaderTypes
// reachable from buffer bindings and renders GLSL type strings, so the same
// struct shape used by two different bindings is only declared once.
type structCollector struct {
	types []ShaderType
	names []string
}

// nameFor returns t's GLSL struct name, registering it as a new struct if
// an equal shape hasn't been seen yet.
func (sc *structCollector) nameFor(t ShaderType) string {
	for i, existing := range sc.types {
		if existing.Equal(t) {
			return sc.names[i]
		}
	}
	name := fmt.Sprintf("Struct%d", len(sc.types))
	sc.types = append(sc.types, t)
	sc.names = append(sc.names, name)
	return name
}

// collect walks t depth-first and registers every struct type nested under
// it (but never t itself, which the caller renders as either an inline
// buffer block or a top-level scalar/array declaration). Registration
// happens on the way back up the recursion, so a struct that embeds another
// struct is always registered after the struct it depends on.
func (sc *structCollector) collect(t ShaderType) {
	switch t.Kind {
	case KindArray:
		sc.collect(*t.Elem)
		if t.Elem.Kind == KindStruct {
			sc.nameFor(*t.Elem)
		}
	case KindStruct:
		for _, f := range t.Fields {
			sc.collect(f.Type)
			if f.Type.Kind == KindStruct {
				sc.nameFor(f.Type)
			}
		}
	}
}

// glslType names t's GLSL type, peeling array dimensions off first; it
// never includes the "[N]" suffix, which declParts reports separately so
// callers can place it after the identifier the way GLSL requires.
func (sc *structCollector) glslType(t ShaderType) string {
	switch t.Kind {
	case KindScalar:
		return valueTypeGLSL[t.Scalar]
	case KindArray:
		return sc.glslType(*t.Elem)
	case KindStruct:
		return sc.nameFor(t)
	}
	return "float"
}

// declParts splits t into its base GLSL type name and its "[N][M]..."
// array-dimension suffix.
func (sc *structCollector) declParts(t ShaderType) (base, suffix string) {
	for t.Kind == KindArray {
		suffix += fmt.Sprintf("[%d]", t.ArrayLen)
		t = *t.Elem
	}
	return sc.glslType(t), suffix
}

func (sc *structCollector) fieldDecl(f ShaderField) string {
	base, suffix := sc.declParts(f.Type)
	return fmt.Sprintf("%s %s%s", base, f.Name, suffix)
}

// emitStructs writes every registered struct in dependency order (depth-
// first, de-duplicated by structural equality): struct declarations a
// binding's block body references always appear above that body.
func (sc *structCollector) emitStructs(b *strings.Builder) {
	for i, st := range sc.types {
		fmt.Fprintf(b, "struct %s {\n", sc.names[i])
		for _, f := range st.Fields {
			fmt.Fprintf(b, "    %s;\n", sc.fieldDecl(f))
		}
		b.WriteString("};\n")
	}
	if len(sc.types) > 0 {
		b.WriteString("\n")
	}
}

// SynthesizeSource walks the reflection and permutation to build the
// source-text a Compiler consumes (spec §4.8 phase 4 step 2): nested struct
// declarations in dependency order, binding declarations per space/slot (a
// struct-typed buffer binding renders as an inline block body; scalar,
// vector, matrix and array-of-those bindings render as a plain qualified
// declaration), the vertex-input block from the permutation's
// vertex-attribute mask, and platform/option defines.
func SynthesizeSource(r *Reflection, p *ShaderPermutation, platform string) (string, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "// platform: %s\n", platform)
	fmt.Fprintf(&b, "#define PLATFORM_%s 1\n", strings.ToUpper(platform))
	for _, ov := range p.sortedResolved() {
		fmt.Fprintf(&b, "#define OPTION_%s %d\n", strings.ToUpper(ov.option), ov.variant)
	}
	b.WriteString("\n")

	sc := &structCollector{}
	for _, space := range r.Spaces {
		for _, binding := range space.Bindings {
			if binding.Kind == BindingUniformBuffer || binding.Kind == BindingStorageBuffer {
				sc.collect(binding.Type)
			}
		}
	}
	sc.emitStructs(&b)

	for _, space := range r.Spaces {
		fmt.Fprintf(&b, "// space %d: %s\n", space.Index, space.Name)
		for _, binding := range space.Bindings {
			qualifier := bindingKindQualifier[binding.Kind]
			isBuffer := binding.Kind == BindingUniformBuffer || binding.Kind == BindingStorageBuffer

			if isBuffer && binding.Type.Kind == KindStruct {
				fmt.Fprintf(&b, "layout(set = %d, binding = %d) %s %sBlock {\n", space.Index, binding.Slot, qualifier, binding.Name)
				for _, f := range binding.Type.Fields {
					fmt.Fprintf(&b, "    %s;\n", sc.fieldDecl(f))
				}
				fmt.Fprintf(&b, "} %s;\n", binding.Name)
				continue
			}

			typeName := ""
			if isBuffer {
				base, suffix := sc.declParts(binding.Type)
				typeName = base + suffix
			}
			fmt.Fprintf(&b, "layout(set = %d, binding = %d) %s %s %s;\n",
				space.Index, binding.Slot, qualifier, typeName, binding.Name)
		}
		b.WriteString("\n")
	}

	tech, ok := r.Techniques[p.Technique]
	if !ok {
		return "", fmt.Errorf("shader: unknown technique %q", p.Technique)
	}
	pass, ok := tech.PassByName(p.Pass)
	if !ok {
		return "", fmt.Errorf("shader: unknown pass %q", p.Pass)
	}

	b.WriteString("// vertex input\n")
	attrs := append([]string{}, pass.VertexAttributes...)
	sort.Slice(attrs, func(i, j int) bool { return vertexAttributeLocations[attrs[i]] < vertexAttributeLocations[attrs[j]] })
	for _, attr := range attrs {
		loc, ok := vertexAttributeLocations[attr]
		if !ok {
			return "", fmt.Errorf("shader: unknown vertex attribute %q", attr)
		}
		glslType, ok := vertexAttributeGLSL[attr]
		if !ok {
			return "", fmt.Errorf("shader: unknown vertex attribute %q", attr)
		}
		fmt.Fprintf(&b, "layout(location = %d) in %s in_%s;\n", loc, glslType, attr)
	}
	b.WriteString("\n")

	if src, ok := pass.Sources["vertex"]; ok {
		b.WriteString("// --- vertex ---\n")
		b.WriteString(src)
		b.WriteString("\n")
	}
	if src, ok := pass.Sources["fragment"]; ok {
		b.WriteString("// --- fragment ---\n")
		b.WriteString(src)
		b.WriteString("\n")
	}

	return b.String(), nil
}
