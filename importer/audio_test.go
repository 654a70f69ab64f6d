package importer

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/ember-forge/pipeline/ioblob"
	"github.com/ember-forge/pipeline/refl"
)

// buildTestWAV constructs a minimal mono 16-bit PCM RIFF/WAVE file with the
// given sample count, following the canonical chunk layout.
func buildTestWAV(t *testing.T, samples int) []byte {
	t.Helper()
	dataBytes := samples * 2 // 16-bit mono
	var buf []byte
	buf = append(buf, []byte("RIFF")...)
	buf = appendU32(buf, uint32(36+dataBytes))
	buf = append(buf, []byte("WAVE")...)

	buf = append(buf, []byte("fmt ")...)
	buf = appendU32(buf, 16)
	buf = appendU16(buf, 1) // PCM
	buf = appendU16(buf, 1) // mono
	buf = appendU32(buf, 44100)
	buf = appendU32(buf, 44100*2)
	buf = appendU16(buf, 2)
	buf = appendU16(buf, 16)

	buf = append(buf, []byte("data")...)
	buf = appendU32(buf, uint32(dataBytes))
	buf = append(buf, make([]byte, dataBytes)...)
	return buf
}

func appendU32(buf []byte, v uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return append(buf, b[:]...)
}

func appendU16(buf []byte, v uint16) []byte {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	return append(buf, b[:]...)
}

func TestAudioImporterParsesWAV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "beep.wav")
	if err := os.WriteFile(path, buildTestWAV(t, 100), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx := NewContext()
	var imp AudioImporter
	if err := imp.Import(ctx, path, refl.NewDynObject(audioClassTag, AudioSettings{})); err != nil {
		t.Fatal(err)
	}
	if len(ctx.Produced) != 1 {
		t.Fatalf("expected 1 produced asset, got %d", len(ctx.Produced))
	}

	c := ctx.Produced[0].Artifact.Cursor()
	rate, err := ioblob.ReadInt32(c, "sample_rate")
	if err != nil || rate != 44100 {
		t.Fatalf("expected sample_rate 44100, got %d (err %v)", rate, err)
	}
	channels, err := ioblob.ReadInt32(c, "channels")
	if err != nil || channels != 1 {
		t.Fatalf("expected mono, got %d channels (err %v)", channels, err)
	}
}

func TestAudioImporterRejectsNonRIFF(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.wav")
	if err := os.WriteFile(path, []byte("not a wav file"), 0o644); err != nil {
		t.Fatal(err)
	}
	var imp AudioImporter
	if err := imp.Import(NewContext(), path, refl.DynObject{}); err == nil {
		t.Fatal("expected error for non-RIFF file")
	}
}
