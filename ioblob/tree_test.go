package ioblob

import "testing"

func buildSampleTree() *Tree {
	tree := CreateTree()
	c := tree.Cursor()
	c.WriteValue("version", Int32Value(1))
	c.WriteValue("uuid", StringValue("abc-123"))
	c.WriteValue("enabled", BoolValue(true))

	c.AppendChild("deps", KindList)
	c.WriteValue("", StringValue("dep_one"))
	c.WriteValue("", StringValue("dep_two"))
	c.Pop()

	return tree
}

func TestCursorNavigation(t *testing.T) {
	tree := buildSampleTree()
	c := tree.Cursor()

	if !c.HasChild("uuid") {
		t.Fatal("expected uuid field")
	}
	v, err := ReadString(c, "uuid")
	if err != nil || v != "abc-123" {
		t.Fatalf("expected abc-123, got %q err=%v", v, err)
	}

	if !c.FindChild("deps") {
		t.Fatal("expected deps child")
	}
	if c.NumChildren() != 2 {
		t.Fatalf("expected 2 deps, got %d", c.NumChildren())
	}
	if !c.FirstChild() {
		t.Fatal("expected first dep")
	}
	if c.Current().Value.String() != "dep_one" {
		t.Fatalf("expected dep_one, got %s", c.Current().Value.String())
	}
	if !c.NextSibling() {
		t.Fatal("expected second dep")
	}
	if c.Current().Value.String() != "dep_two" {
		t.Fatalf("expected dep_two, got %s", c.Current().Value.String())
	}
	if c.NextSibling() {
		t.Fatal("did not expect a third sibling")
	}
}

func TestYAMLBackendRoundTrip(t *testing.T) {
	tree := buildSampleTree()
	var be YAMLBackend
	data, err := be.Save(tree)
	if err != nil {
		t.Fatal(err)
	}
	parsed, err := be.Parse(data)
	if err != nil {
		t.Fatalf("parse: %v, data=%s", err, data)
	}
	c := parsed.Cursor()
	v, err := ReadString(c, "uuid")
	if err != nil || v != "abc-123" {
		t.Fatalf("expected uuid abc-123 after round trip, got %q err=%v", v, err)
	}
	ok, err := ReadBool(c, "enabled")
	if err != nil || !ok {
		t.Fatalf("expected enabled=true after round trip, got %v err=%v", ok, err)
	}
}

func TestBinaryBackendRoundTrip(t *testing.T) {
	tree := buildSampleTree()
	for _, compress := range []bool{false, true} {
		be := BinaryBackend{Compress: compress}
		data, err := be.Save(tree)
		if err != nil {
			t.Fatal(err)
		}
		parsed, err := be.Parse(data)
		if err != nil {
			t.Fatalf("compress=%v parse: %v", compress, err)
		}
		c := parsed.Cursor()
		v, err := ReadInt32(c, "version")
		if err != nil || v != 1 {
			t.Fatalf("compress=%v expected version 1, got %d err=%v", compress, v, err)
		}
		if !c.FindChild("deps") || c.NumChildren() != 2 {
			t.Fatalf("compress=%v expected 2 deps after round trip", compress)
		}
	}
}

func TestBinaryBackendRejectsBadMagic(t *testing.T) {
	var be BinaryBackend
	_, err := be.Parse([]byte("not a tree"))
	if err == nil {
		t.Fatal("expected parse error for bad magic")
	}
}
