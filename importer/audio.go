package importer

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"

	"github.com/ember-forge/pipeline/asset"
	"github.com/ember-forge/pipeline/internal/status"
	"github.com/ember-forge/pipeline/ioblob"
	"github.com/ember-forge/pipeline/refl"
)

// AudioImporter decodes RIFF/WAVE PCM data into a flat artifact of decoded
// sample bytes plus format metadata. No example repo in this codebase's
// dependency pack carries a WAV-decoding library (checked: none of the
// corpus's go.mod files import one), so this parses the RIFF container by
// hand with encoding/binary, grounded on the WAV header layout from
// gazed-vu's load/wav.go.
type AudioImporter struct{}

var audioClassTag = refl.Intern("audio")

func (AudioImporter) FileExtensions() []string { return []string{".wav"} }

func (AudioImporter) Version() int32 { return 1 }

func (AudioImporter) Presets(path string) []Preset {
	presets := []Preset{{Name: "default", Template: refl.NewDynObject(audioClassTag, AudioSettings{})}}
	for _, e := range loadPresetFragment(path) {
		streaming, _ := e.boolOption("streaming")
		presets = append(presets, Preset{
			Name:     e.Name,
			Template: refl.NewDynObject(audioClassTag, AudioSettings{Streaming: streaming}),
		})
	}
	return presets
}

type AudioSettings struct {
	Streaming bool
}

func (AudioImporter) CollectDependencies(ctx *Context, path string, settings refl.DynObject) error {
	return nil
}

func (AudioImporter) Import(ctx *Context, path string, settings refl.DynObject) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	sum := sha256.Sum256(data)
	ctx.AddSource(path, hex.EncodeToString(sum[:]))

	wav, err := parseWAV(data)
	if err != nil {
		return err
	}

	tree := ioblob.CreateTree()
	c := tree.Cursor()
	c.WriteValue("channels", ioblob.Int32Value(int32(wav.Channels)))
	c.WriteValue("sample_rate", ioblob.Int32Value(int32(wav.SampleRate)))
	c.WriteValue("bits_per_sample", ioblob.Int32Value(int32(wav.BitsPerSample)))
	c.WriteValue("pcm", ioblob.StringValue(string(wav.Data)))

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	meta := &asset.Meta{
		Version:     1,
		Class:       audioClassTag,
		Loader:      audioClassTag,
		UUID:        refl.NewUUID(),
		Description: "imported audio: " + path,
		PathOnDisk:  path,
	}
	ctx.Emit(ProducedAsset{Id: asset.NewId(name), Meta: meta, Artifact: tree})
	return nil
}

type wavData struct {
	Channels      uint16
	SampleRate    uint32
	BitsPerSample uint16
	Data          []byte
}

// parseWAV walks the canonical RIFF/WAVE chunk layout: "RIFF" size "WAVE",
// then a sequence of (id, size, payload) chunks, of which this importer
// only needs "fmt " and "data".
func parseWAV(data []byte) (*wavData, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, status.New(status.FailedParse, "not a RIFF/WAVE file")
	}

	var w wavData
	off := 12
	haveFmt, haveData := false, false
	for off+8 <= len(data) {
		chunkID := string(data[off : off+4])
		chunkSize := binary.LittleEndian.Uint32(data[off+4 : off+8])
		body := off + 8
		if body+int(chunkSize) > len(data) {
			return nil, status.New(status.FailedParse, "truncated %q chunk", chunkID)
		}

		switch chunkID {
		case "fmt ":
			if chunkSize < 16 {
				return nil, status.New(status.FailedParse, "fmt chunk too small")
			}
			fmtBody := data[body : body+int(chunkSize)]
			w.Channels = binary.LittleEndian.Uint16(fmtBody[2:4])
			w.SampleRate = binary.LittleEndian.Uint32(fmtBody[4:8])
			w.BitsPerSample = binary.LittleEndian.Uint16(fmtBody[14:16])
			haveFmt = true
		case "data":
			w.Data = data[body : body+int(chunkSize)]
			haveData = true
		}

		off = body + int(chunkSize)
		if chunkSize%2 == 1 {
			off++ // chunks are word-aligned
		}
	}

	if !haveFmt || !haveData {
		return nil, status.New(status.FailedParse, "missing fmt or data chunk")
	}
	return &w, nil
}
