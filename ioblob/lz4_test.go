package ioblob

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/ember-forge/pipeline/internal/status"
)

func TestLZ4RoundTripRandomBuffer(t *testing.T) {
	in := make([]byte, 1<<20)
	rand.New(rand.NewSource(1)).Read(in)

	out := make([]byte, Estimate(len(in)))
	n, err := Compress(in, out)
	if err != nil {
		t.Fatal(err)
	}

	decompressed := make([]byte, len(in))
	dn, err := Decompress(out[:n], decompressed, len(in))
	if err != nil {
		t.Fatal(err)
	}
	if dn != len(in) {
		t.Fatalf("expected %d decompressed bytes, got %d", len(in), dn)
	}
	if !bytes.Equal(in, decompressed) {
		t.Fatal("round trip mismatch")
	}
}

func TestLZ4RoundTripCompressibleBuffer(t *testing.T) {
	in := bytes.Repeat([]byte("abcdefgh"), 100000)
	out := make([]byte, Estimate(len(in)))
	n, err := Compress(in, out)
	if err != nil {
		t.Fatal(err)
	}
	if n >= len(in) {
		t.Fatalf("expected compression to shrink a highly repetitive buffer, got %d from %d", n, len(in))
	}
	decompressed := make([]byte, len(in))
	if _, err := Decompress(out[:n], decompressed, len(in)); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(in, decompressed) {
		t.Fatal("round trip mismatch")
	}
}

func TestLZ4DecompressUndersizedOutput(t *testing.T) {
	in := []byte("hello world")
	out := make([]byte, Estimate(len(in)))
	n, err := Compress(in, out)
	if err != nil {
		t.Fatal(err)
	}
	small := make([]byte, len(in)-1)
	_, err = Decompress(out[:n], small, len(in))
	if !status.Is(err, status.FailedDecompress) {
		t.Fatalf("expected FailedDecompress, got %v", err)
	}
}
