package vulkan

import (
	"strings"
	"testing"
)

func TestSplitStagesSeparatesVertexAndFragment(t *testing.T) {
	source := "#define PLATFORM_VULKAN 1\n\n" +
		"// --- vertex ---\nVERTEX_BODY\n" +
		"// --- fragment ---\nFRAGMENT_BODY\n"

	vs, fs, err := splitStages(source)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(vs, "VERTEX_BODY") || strings.Contains(vs, "FRAGMENT_BODY") {
		t.Fatalf("vertex half wrong: %q", vs)
	}
	if !strings.Contains(fs, "FRAGMENT_BODY") || strings.Contains(fs, "VERTEX_BODY") {
		t.Fatalf("fragment half wrong: %q", fs)
	}
	if !strings.Contains(vs, "PLATFORM_VULKAN") || !strings.Contains(fs, "PLATFORM_VULKAN") {
		t.Fatal("expected the shared preamble to be copied into both halves")
	}
}

func TestSplitStagesFailsWithoutMarkers(t *testing.T) {
	if _, _, err := splitStages("no markers here"); err == nil {
		t.Fatal("expected an error for source missing stage markers")
	}
}

func TestEncodeDecodeCompiledProgramRoundTrips(t *testing.T) {
	original := &CompiledProgram{VS: []byte{1, 2, 3}, FS: []byte{4, 5, 6, 7}}
	encoded := encodeCompiledProgram(original)

	decoded, err := DecodeCompiledProgram(encoded)
	if err != nil {
		t.Fatal(err)
	}
	if string(decoded.VS) != string(original.VS) || string(decoded.FS) != string(original.FS) {
		t.Fatalf("round trip mismatch: %+v", decoded)
	}
}

func TestDecodeCompiledProgramRejectsTruncatedData(t *testing.T) {
	if _, err := DecodeCompiledProgram([]byte{1, 2}); err == nil {
		t.Fatal("expected an error for truncated data")
	}
}

