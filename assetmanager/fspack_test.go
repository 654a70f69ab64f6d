package assetmanager

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ember-forge/pipeline/asset"
	"github.com/ember-forge/pipeline/refl"
)

func TestFilesystemPackGetMeta(t *testing.T) {
	dir := t.TempDir()
	id := asset.NewId("textures/brick")
	if err := os.MkdirAll(filepath.Join(dir, "textures"), 0o755); err != nil {
		t.Fatal(err)
	}

	meta := &asset.Meta{Class: refl.Intern("texture"), UUID: refl.NewUUID()}
	data, err := meta.Encode()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "textures/brick.res"), data, 0o644); err != nil {
		t.Fatal(err)
	}

	pack := NewFilesystemPack(dir)
	got, err := pack.GetMeta(id)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Class.Equal(meta.Class) {
		t.Fatalf("class mismatch: %+v", got)
	}
}

func TestFilesystemPackMissingMeta(t *testing.T) {
	pack := NewFilesystemPack(t.TempDir())
	if _, err := pack.GetMeta(asset.NewId("nope")); err == nil {
		t.Fatal("expected error for missing meta")
	}
}

func TestFilesystemPackReadFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "blob.bin"), []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	pack := NewFilesystemPack(dir)
	data, err := pack.ReadFile("blob.bin")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello" {
		t.Fatalf("unexpected content %q", data)
	}
}
