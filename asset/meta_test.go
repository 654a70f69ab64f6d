package asset

import (
	"testing"

	"github.com/ember-forge/pipeline/refl"
)

func TestMetaEncodeParseRoundTrip(t *testing.T) {
	meta := &Meta{
		Class:  refl.Intern("texture"),
		Loader: refl.Intern("texture_loader"),
		UUID:   refl.NewUUID(),
		Deps:   []Id{NewId("mat/brick.mat"), NewId("mat/brick_normal.mat")},
		ImportData: &ImportData{
			Importer: refl.Intern("texture_importer"),
			Version:  3,
			Sources:  []SourceFile{{Path: "brick.png", Hash: "abc123"}},
		},
	}

	data, err := meta.Encode()
	if err != nil {
		t.Fatal(err)
	}

	got, err := ParseMeta(data)
	if err != nil {
		t.Fatal(err)
	}

	if !got.Class.Equal(meta.Class) || !got.Loader.Equal(meta.Loader) {
		t.Fatalf("class/loader mismatch: %+v", got)
	}
	if got.UUID != meta.UUID {
		t.Fatalf("uuid mismatch: got %s want %s", got.UUID, meta.UUID)
	}
	if len(got.Deps) != 2 || !got.Deps[0].Equal(meta.Deps[0]) || !got.Deps[1].Equal(meta.Deps[1]) {
		t.Fatalf("deps mismatch: %+v", got.Deps)
	}
	if got.ImportData == nil || got.ImportData.Version != 3 || len(got.ImportData.Sources) != 1 {
		t.Fatalf("import data mismatch: %+v", got.ImportData)
	}
	if got.ImportData.Sources[0].Hash != "abc123" {
		t.Fatalf("source hash mismatch: %+v", got.ImportData.Sources[0])
	}
}

func TestMetaWithoutImportData(t *testing.T) {
	meta := &Meta{Class: refl.Intern("native_blob"), UUID: refl.NewUUID()}
	data, err := meta.Encode()
	if err != nil {
		t.Fatal(err)
	}
	got, err := ParseMeta(data)
	if err != nil {
		t.Fatal(err)
	}
	if got.ImportData != nil {
		t.Fatal("expected nil import data")
	}
}

func TestImportDataHashStable(t *testing.T) {
	a := &ImportData{Importer: refl.Intern("mesh_importer"), Version: 1, Sources: []SourceFile{
		{Path: "b.fbx", Hash: "2"}, {Path: "a.fbx", Hash: "1"},
	}}
	b := &ImportData{Importer: refl.Intern("mesh_importer"), Version: 1, Sources: []SourceFile{
		{Path: "a.fbx", Hash: "1"}, {Path: "b.fbx", Hash: "2"},
	}}
	if a.Hash() != b.Hash() {
		t.Fatal("hash must be order-independent across sources")
	}

	c := &ImportData{Importer: refl.Intern("mesh_importer"), Version: 2, Sources: a.Sources}
	if a.Hash() == c.Hash() {
		t.Fatal("hash must change when importer version changes")
	}
}
