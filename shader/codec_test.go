package shader

import "testing"

func TestEncodeDecodeReflectionRoundTrips(t *testing.T) {
	r := buildTestReflection(t)

	tree := EncodeReflection(r)
	decoded, err := DecodeReflection(tree)
	if err != nil {
		t.Fatal(err)
	}

	if len(decoded.Spaces) != len(r.Spaces) {
		t.Fatalf("expected %d spaces, got %d", len(r.Spaces), len(decoded.Spaces))
	}
	for i, space := range r.Spaces {
		ds := decoded.Spaces[i]
		if ds.Name != space.Name || ds.Index != space.Index {
			t.Fatalf("space %d mismatch: got %+v, want %+v", i, ds, space)
		}
		if len(ds.Bindings) != len(space.Bindings) {
			t.Fatalf("space %d binding count mismatch: got %d, want %d", i, len(ds.Bindings), len(space.Bindings))
		}
		for j, b := range space.Bindings {
			db := ds.Bindings[j]
			if db.Name != b.Name || db.Slot != b.Slot || db.Kind != b.Kind || !db.Type.Equal(b.Type) {
				t.Fatalf("space %d binding %d mismatch: got %+v, want %+v", i, j, db, b)
			}
		}
	}

	tech, ok := decoded.Techniques["forward"]
	if !ok {
		t.Fatal("expected technique 'forward' to survive round-trip")
	}
	pass, ok := tech.PassByName("opaque")
	if !ok {
		t.Fatal("expected pass 'opaque' to survive round-trip")
	}
	wantTech := r.Techniques["forward"]
	wantPass, _ := wantTech.PassByName("opaque")
	if len(pass.Options) != len(wantPass.Options) {
		t.Fatalf("expected %d options, got %d", len(wantPass.Options), len(pass.Options))
	}
	for i, o := range wantPass.Options {
		if pass.Options[i].Name != o.Name || pass.Options[i].BitOffset != o.BitOffset || pass.Options[i].BitWidth != o.BitWidth {
			t.Fatalf("option %d mismatch: got %+v, want %+v", i, pass.Options[i], o)
		}
	}

	if len(decoded.ParamsInfo) != len(r.ParamsInfo) {
		t.Fatalf("RebuildParams produced %d params, want %d", len(decoded.ParamsInfo), len(r.ParamsInfo))
	}
	idx, ok := decoded.ParamsId["ViewProj"]
	if !ok || !decoded.ParamsInfo[idx].Type.IsPrimitive(TypeMat4) {
		t.Fatal("expected RebuildParams to reconstruct ViewProj as a mat4 param")
	}
	if len(decoded.Defaults) != len(r.Defaults) {
		t.Fatalf("RebuildParams produced %d defaults, want %d", len(decoded.Defaults), len(r.Defaults))
	}

	if decoded.Sources["vertex"] != r.Sources["vertex"] || decoded.Sources["fragment"] != r.Sources["fragment"] {
		t.Fatal("expected sources to survive round-trip")
	}
}

const structBufferYAML = `
spaces:
  - name: per_draw
    bindings:
      - name: Lights
        kind: storage_buffer
        type:
          array:
            struct:
              - name: color
                type: vec3
              - name: intensity
                type: float
          count: 4
`

func TestEncodeDecodeReflectionRoundTripsStructBuffer(t *testing.T) {
	file, err := ParseShaderFile([]byte(structBufferYAML))
	if err != nil {
		t.Fatal(err)
	}
	r, err := Reflect(file, nil)
	if err != nil {
		t.Fatal(err)
	}

	idx, ok := r.ParamsId["Lights"]
	if !ok {
		t.Fatal("expected an array-of-struct buffer to flatten as a single 'Lights' leaf param")
	}
	if r.ParamsInfo[idx].Type.Kind != KindArray {
		t.Fatalf("expected Lights to flatten as an array leaf, got kind %v", r.ParamsInfo[idx].Type.Kind)
	}

	decoded, err := DecodeReflection(EncodeReflection(r))
	if err != nil {
		t.Fatal(err)
	}
	decodedBinding := decoded.Spaces[0].Bindings[0]
	origBinding := r.Spaces[0].Bindings[0]
	if !decodedBinding.Type.Equal(origBinding.Type) {
		t.Fatalf("struct buffer type did not survive round-trip: got %+v, want %+v", decodedBinding.Type, origBinding.Type)
	}
	if decodedBinding.Type.Size != origBinding.Type.Size {
		t.Fatalf("expected laid-out size to survive round-trip, got %d want %d", decodedBinding.Type.Size, origBinding.Type.Size)
	}
}
