package loader

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/ember-forge/pipeline/asset"
	"github.com/ember-forge/pipeline/assetmanager"
	"github.com/ember-forge/pipeline/importer"
	"github.com/ember-forge/pipeline/refl"
)

func buildTestWAV(t *testing.T, channels, sampleRate uint32, bitsPerSample uint16, samples []int16) []byte {
	t.Helper()
	dataBytes := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(dataBytes[i*2:], uint16(s))
	}

	var buf []byte
	appendU32 := func(v uint32) {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], v)
		buf = append(buf, b[:]...)
	}
	appendU16 := func(v uint16) {
		var b [2]byte
		binary.LittleEndian.PutUint16(b[:], v)
		buf = append(buf, b[:]...)
	}

	byteRate := channels * sampleRate * uint32(bitsPerSample) / 8
	blockAlign := uint16(channels * uint32(bitsPerSample) / 8)

	buf = append(buf, []byte("RIFF")...)
	appendU32(uint32(36 + len(dataBytes)))
	buf = append(buf, []byte("WAVE")...)
	buf = append(buf, []byte("fmt ")...)
	appendU32(16)
	appendU16(1) // PCM
	appendU16(uint16(channels))
	appendU32(sampleRate)
	appendU32(byteRate)
	appendU16(blockAlign)
	appendU16(bitsPerSample)
	buf = append(buf, []byte("data")...)
	appendU32(uint32(len(dataBytes)))
	buf = append(buf, dataBytes...)
	return buf
}

func TestAudioLoaderLoadsImportedArtifact(t *testing.T) {
	dir := t.TempDir()
	wavPath := filepath.Join(dir, "beep.wav")
	wavData := buildTestWAV(t, 1, 44100, 16, []int16{1, 2, 3, 4})
	if err := os.WriteFile(wavPath, wavData, 0o644); err != nil {
		t.Fatal(err)
	}

	storeDir := t.TempDir()
	store := importer.NewFileArtifactStore(storeDir)
	runner := importer.NewRunner(store)

	id := asset.NewId("beep")
	var imp importer.AudioImporter
	produced, _, err := runner.RunImport(imp, wavPath, id, refl.DynObject{})
	if err != nil {
		t.Fatal(err)
	}
	assetId := produced[0].Id
	meta, _ := store.ReadMeta(assetId)

	pack := assetmanager.NewFilesystemPack(storeDir)
	req := &assetmanager.LoadRequest{Id: assetId, Meta: meta, Pack: pack}

	var loader AudioLoader
	a, err := loader.Load(req)
	if err != nil {
		t.Fatal(err)
	}
	payload, ok := a.Payload.(*AudioPayload)
	if !ok {
		t.Fatalf("expected *AudioPayload, got %T", a.Payload)
	}
	if payload.Channels != 1 || payload.SampleRate != 44100 || payload.BitsPerSample != 16 {
		t.Fatalf("unexpected format: %+v", payload)
	}
	if len(payload.PCM) != 8 {
		t.Fatalf("expected 8 PCM bytes, got %d", len(payload.PCM))
	}
}
