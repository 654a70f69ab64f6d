package shader

import "testing"

const testShaderYAML = `
spaces:
  - name: per_frame
    bindings:
      - name: ViewProj
        kind: uniform_buffer
        type: mat4
  - name: per_draw
    bindings:
      - name: AlbedoMap
        kind: texture2d
      - name: AlbedoSampler
        kind: sampler
techniques:
  - name: forward
    options:
      - name: USE_SHADOW
        variants: ["off", "on"]
    passes:
      - name: opaque
        options:
          - name: USE_NORMAL_MAP
            variants: ["off", "on"]
        vertex_attributes: ["position", "normal", "texcoord"]
sources:
  vertex: "// vertex stub"
  fragment: "// fragment stub"
`

func TestReflectAssignsSpaceAndBindingIndices(t *testing.T) {
	file, err := ParseShaderFile([]byte(testShaderYAML))
	if err != nil {
		t.Fatal(err)
	}
	r, err := Reflect(file, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Spaces) != 2 {
		t.Fatalf("expected 2 spaces, got %d", len(r.Spaces))
	}
	if r.Spaces[0].Name != "per_frame" || r.Spaces[0].Index != 0 {
		t.Fatalf("unexpected first space: %+v", r.Spaces[0])
	}
	if r.Spaces[1].Bindings[0].Slot != 0 || r.Spaces[1].Bindings[1].Slot != 1 {
		t.Fatalf("expected dense per-space slot indices, got %+v", r.Spaces[1].Bindings)
	}
}

func TestReflectUnionsTechniqueAndPassOptions(t *testing.T) {
	file, err := ParseShaderFile([]byte(testShaderYAML))
	if err != nil {
		t.Fatal(err)
	}
	r, err := Reflect(file, nil)
	if err != nil {
		t.Fatal(err)
	}
	tech, ok := r.Techniques["forward"]
	if !ok {
		t.Fatal("expected technique 'forward'")
	}
	pass, ok := tech.PassByName("opaque")
	if !ok {
		t.Fatal("expected pass 'opaque'")
	}
	if len(pass.Options) != 2 {
		t.Fatalf("expected technique option unioned with pass option, got %d", len(pass.Options))
	}
	if pass.Options[0].BitOffset != 0 || pass.Options[1].BitOffset != pass.Options[0].BitWidth {
		t.Fatalf("expected sequential bit allocation, got %+v", pass.Options)
	}
}

func TestReflectFlattensBufferParams(t *testing.T) {
	file, err := ParseShaderFile([]byte(testShaderYAML))
	if err != nil {
		t.Fatal(err)
	}
	r, err := Reflect(file, nil)
	if err != nil {
		t.Fatal(err)
	}
	idx, ok := r.ParamsId["ViewProj"]
	if !ok {
		t.Fatal("expected ViewProj in params_id")
	}
	if !r.ParamsInfo[idx].Type.IsPrimitive(TypeMat4) {
		t.Fatalf("expected ViewProj to be a mat4, got %+v", r.ParamsInfo[idx].Type)
	}
	if len(r.Defaults) != 1 {
		t.Fatalf("expected 1 uniform-buffer default image, got %d", len(r.Defaults))
	}
}

const structUniformYAML = `
spaces:
  - name: per_object
    bindings:
      - name: Material
        kind: uniform_buffer
        type:
          struct:
            - name: albedo
              type: vec3
            - name: roughness
              type: float
`

func TestReflectLayoutsStructBufferFieldsStd140(t *testing.T) {
	file, err := ParseShaderFile([]byte(structUniformYAML))
	if err != nil {
		t.Fatal(err)
	}
	r, err := Reflect(file, nil)
	if err != nil {
		t.Fatal(err)
	}

	albedoIdx, ok := r.ParamsId["Material.albedo"]
	if !ok {
		t.Fatal("expected a flattened 'Material.albedo' param")
	}
	roughnessIdx, ok := r.ParamsId["Material.roughness"]
	if !ok {
		t.Fatal("expected a flattened 'Material.roughness' param")
	}
	if r.ParamsInfo[albedoIdx].ByteOffset != 0 {
		t.Fatalf("expected albedo at byte offset 0, got %d", r.ParamsInfo[albedoIdx].ByteOffset)
	}
	if r.ParamsInfo[roughnessIdx].ByteOffset != 12 {
		t.Fatalf("expected roughness packed right after vec3 albedo at offset 12, got %d", r.ParamsInfo[roughnessIdx].ByteOffset)
	}
	if len(r.Defaults) != 1 || r.Defaults[0].SpaceIndex != 0 {
		t.Fatalf("expected one default image sized to the laid-out struct, got %+v", r.Defaults)
	}
	if len(r.Defaults[0].Bytes) != 16 {
		t.Fatalf("expected std140 to round the struct up to a 16-byte size, got %d", len(r.Defaults[0].Bytes))
	}
}

const arrayStrideYAML = `
spaces:
  - name: per_object
    bindings:
      - name: UniformWeights
        kind: uniform_buffer
        type:
          array:
            float
          count: 3
  - name: per_draw
    bindings:
      - name: StorageWeights
        kind: storage_buffer
        type:
          array:
            float
          count: 3
`

func TestReflectAppliesStd140ArrayStrideRounding(t *testing.T) {
	file, err := ParseShaderFile([]byte(arrayStrideYAML))
	if err != nil {
		t.Fatal(err)
	}
	r, err := Reflect(file, nil)
	if err != nil {
		t.Fatal(err)
	}

	uIdx, ok := r.ParamsId["UniformWeights"]
	if !ok {
		t.Fatal("expected a flattened 'UniformWeights' param")
	}
	sIdx, ok := r.ParamsId["StorageWeights"]
	if !ok {
		t.Fatal("expected a flattened 'StorageWeights' param")
	}

	uSize := r.ParamsInfo[uIdx].Type.Size
	sSize := r.ParamsInfo[sIdx].Type.Size
	if uSize != 48 { // std140 rounds each float element's stride up to 16 bytes: 3 * 16
		t.Fatalf("expected std140 uniform-buffer array size 48, got %d", uSize)
	}
	if sSize != 12 { // std430 keeps the natural 4-byte float stride: 3 * 4
		t.Fatalf("expected std430 storage-buffer array size 12, got %d", sSize)
	}
}

func TestReflectRejectsOptionBitBudgetOverflow(t *testing.T) {
	variants := make([]string, 1<<7) // needs 7 bits alone, pushes a pass over 64 total with others
	for i := range variants {
		variants[i] = "v"
	}
	file := &ShaderFile{
		Techniques: []rawTechnique{{
			Name: "t",
			Passes: []rawPass{{
				Name: "p",
				Options: []rawOption{
					{Name: "a", Variants: variants},
					{Name: "b", Variants: variants},
					{Name: "c", Variants: variants},
					{Name: "d", Variants: variants},
					{Name: "e", Variants: variants},
					{Name: "f", Variants: variants},
					{Name: "g", Variants: variants},
					{Name: "h", Variants: variants},
					{Name: "i", Variants: variants},
					{Name: "j", Variants: variants},
				},
			}},
		}},
	}
	if _, err := Reflect(file, nil); err == nil {
		t.Fatal("expected option-bit budget overflow to fail")
	}
}
