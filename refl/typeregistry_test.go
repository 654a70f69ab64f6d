package refl

import (
	"reflect"
	"testing"

	"github.com/ember-forge/pipeline/ioblob"
)

type sampleStruct struct {
	Name    string
	Count   int32
	Hidden  string
	Comment string
}

func sampleDesc() *ClassDesc {
	return &ClassDesc{
		Tag:    Intern("sample"),
		GoType: reflect.TypeOf(sampleStruct{}),
		Factory: func() interface{} { return &sampleStruct{} },
		Fields: []FieldDesc{
			{Name: "Name", Type: reflect.TypeOf("")},
			{Name: "Count", Type: reflect.TypeOf(int32(0))},
			{Name: "Hidden", Type: reflect.TypeOf(""), Flags: FieldNoSaveLoad},
			{Name: "Comment", Type: reflect.TypeOf(""), Flags: FieldOptional},
		},
	}
}

func TestRegistryRoundTrip(t *testing.T) {
	r := NewRegistry()
	desc := sampleDesc()
	if err := r.Register(desc); err != nil {
		t.Fatal(err)
	}
	r.Build()

	if err := r.Register(sampleDesc()); err == nil {
		t.Fatal("expected registering after Build to fail")
	}

	tree := ioblob.CreateTree()
	c := tree.Cursor()
	obj := &sampleStruct{Name: "brick", Count: 3, Hidden: "secret"}
	if err := WriteFrom(desc, c, obj); err != nil {
		t.Fatal(err)
	}
	if c.HasChild("Hidden") {
		t.Fatal("NoSaveLoad field must not be written")
	}

	got := &sampleStruct{}
	if err := ReadInto(desc, c, got); err != nil {
		t.Fatal(err)
	}
	if got.Name != "brick" || got.Count != 3 {
		t.Fatalf("unexpected round trip result: %+v", got)
	}
	if got.Hidden != "" {
		t.Fatal("NoSaveLoad field must not be populated on read")
	}
}

func TestRegistryMissingRequiredField(t *testing.T) {
	r := NewRegistry()
	desc := &ClassDesc{
		Tag:     Intern("strict"),
		Factory: func() interface{} { return &sampleStruct{} },
		Fields: []FieldDesc{
			{Name: "Name", Type: reflect.TypeOf("")},
		},
	}
	r.Register(desc)

	tree := ioblob.CreateTree()
	c := tree.Cursor()
	got := &sampleStruct{}
	if err := ReadInto(desc, c, got); err == nil {
		t.Fatal("expected FailedParse for missing required field")
	}
}
