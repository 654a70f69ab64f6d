package vulkan

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/ember-forge/pipeline/shader"
)

// CompiledProgram bundles the two SPIR-V modules a GLSLCCompiler produces
// for one permutation. Compile returns it packed by encodeCompiledProgram;
// shader.Cache stores those bytes as the opaque ProgramEntry.Program, and a
// Driver unpacks them with DecodeCompiledProgram before turning each half
// into a gfxdriver.ProgramHandle.
type CompiledProgram struct {
	VS []byte
	FS []byte
}

// GLSLCCompiler shells out to glslc, the same way the teacher's
// magefiles/build.go drives it at asset-build time
// (-fshader-stage=vert|frag, source in, .spv out). No example repo
// vendors a Go SPIR-V compiler, so os/exec is the only option here; this
// is the one place in the adapter that is stdlib by necessity rather than
// by a dropped dependency.
type GLSLCCompiler struct {
	// BinaryPath overrides the glslc lookup; empty uses $VULKAN_SDK/bin/glslc
	// falling back to "glslc" on $PATH, mirroring the teacher's VULKAN_SDK
	// env var convention.
	BinaryPath string
}

func (c *GLSLCCompiler) Platform() string { return "vulkan" }

func (c *GLSLCCompiler) resolveBinary() string {
	if c.BinaryPath != "" {
		return c.BinaryPath
	}
	if sdk := os.Getenv("VULKAN_SDK"); sdk != "" {
		return sdk + "/bin/glslc"
	}
	return "glslc"
}

// Compile splits the combined vertex+fragment source SynthesizeSource
// produces (delimited by the "--- vertex ---"/"--- fragment ---" comment
// markers) and runs glslc once per stage, since glslc itself only ever
// compiles a single shader stage per invocation.
func (c *GLSLCCompiler) Compile(req *shader.CompileRequest) ([]byte, error) {
	vsSource, fsSource, err := splitStages(req.Source)
	if err != nil {
		return nil, err
	}

	vsSPV, err := c.compileStage(vsSource, "vert")
	if err != nil {
		return nil, fmt.Errorf("gfxdriver/vulkan: compiling vertex stage: %w", err)
	}
	fsSPV, err := c.compileStage(fsSource, "frag")
	if err != nil {
		return nil, fmt.Errorf("gfxdriver/vulkan: compiling fragment stage: %w", err)
	}

	program := &CompiledProgram{VS: vsSPV, FS: fsSPV}
	return encodeCompiledProgram(program), nil
}

func splitStages(source string) (vertex, fragment string, err error) {
	const vertMarker = "// --- vertex ---\n"
	const fragMarker = "// --- fragment ---\n"

	vertIdx := strings.Index(source, vertMarker)
	fragIdx := strings.Index(source, fragMarker)
	if vertIdx < 0 || fragIdx < 0 {
		return "", "", fmt.Errorf("gfxdriver/vulkan: synthesized source is missing a vertex or fragment section")
	}

	preamble := source[:vertIdx]
	if vertIdx < fragIdx {
		vertex = preamble + source[vertIdx+len(vertMarker):fragIdx]
		fragment = preamble + source[fragIdx+len(fragMarker):]
	} else {
		fragment = preamble + source[fragIdx+len(fragMarker):vertIdx]
		vertex = preamble + source[vertIdx+len(vertMarker):]
	}
	return vertex, fragment, nil
}

func (c *GLSLCCompiler) compileStage(source, stage string) ([]byte, error) {
	srcFile, err := os.CreateTemp("", "pipeline-*.glsl")
	if err != nil {
		return nil, err
	}
	defer os.Remove(srcFile.Name())
	if _, err := srcFile.WriteString(source); err != nil {
		srcFile.Close()
		return nil, err
	}
	srcFile.Close()

	outFile := srcFile.Name() + ".spv"
	defer os.Remove(outFile)

	cmd := exec.Command(c.resolveBinary(), fmt.Sprintf("-fshader-stage=%s", stage), srcFile.Name(), "-o", outFile)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("glslc: %w: %s", err, stderr.String())
	}

	return os.ReadFile(outFile)
}

// encodeCompiledProgram packs both modules into one byte slice so
// shader.Compiler's Compile -> []byte contract is preserved; a 4-byte
// length prefix on each half keeps the framing unambiguous.
func encodeCompiledProgram(p *CompiledProgram) []byte {
	out := make([]byte, 0, 8+len(p.VS)+len(p.FS))
	out = appendUint32(out, uint32(len(p.VS)))
	out = append(out, p.VS...)
	out = appendUint32(out, uint32(len(p.FS)))
	out = append(out, p.FS...)
	return out
}

// DecodeCompiledProgram reverses encodeCompiledProgram; a Driver calls it
// before handing each half to CreateProgram.
func DecodeCompiledProgram(data []byte) (*CompiledProgram, error) {
	vsLen, data, err := readUint32(data)
	if err != nil {
		return nil, err
	}
	if uint32(len(data)) < vsLen {
		return nil, fmt.Errorf("gfxdriver/vulkan: truncated compiled program")
	}
	vs := data[:vsLen]
	data = data[vsLen:]

	fsLen, data, err := readUint32(data)
	if err != nil {
		return nil, err
	}
	if uint32(len(data)) < fsLen {
		return nil, fmt.Errorf("gfxdriver/vulkan: truncated compiled program")
	}
	fs := data[:fsLen]

	return &CompiledProgram{VS: vs, FS: fs}, nil
}

func appendUint32(b []byte, v uint32) []byte {
	return append(b, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

func readUint32(b []byte) (uint32, []byte, error) {
	if len(b) < 4 {
		return 0, nil, fmt.Errorf("gfxdriver/vulkan: truncated length prefix")
	}
	v := uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
	return v, b[4:], nil
}
