package ioblob

import (
	"github.com/pierrec/lz4/v4"

	"github.com/ember-forge/pipeline/internal/status"
)

// Estimate returns the upper bound buffer size Compress needs for an input
// of inSize bytes (spec §4.2: estimate(in_size) -> upper_bound). It
// includes one tag byte on top of the LZ4 block bound, since Compress
// falls back to storing the input verbatim when it doesn't compress.
func Estimate(inSize int) int {
	return lz4.CompressBlockBound(inSize) + 1
}

// Compress writes a compressed (or, if incompressible, verbatim-tagged)
// representation of in into out, returning the number of bytes written.
// out must be at least Estimate(len(in)) bytes.
func Compress(in, out []byte) (int, error) {
	if len(out) < Estimate(len(in)) {
		return 0, status.New(status.FailedCompress, "output buffer smaller than Estimate(len(in))")
	}
	var c lz4.Compressor
	n, err := c.CompressBlock(in, out[1:])
	if err != nil {
		return 0, status.Wrap(status.FailedCompress, err, "lz4 compress")
	}
	if n == 0 || n >= len(in) {
		// Incompressible (or pathologically small) input: store verbatim.
		out[0] = 0
		copy(out[1:1+len(in)], in)
		return 1 + len(in), nil
	}
	out[0] = 1
	return 1 + n, nil
}

// Decompress inflates in into out, which must be exactly
// expectedDecompressedSize bytes (or larger). Any mismatch between the
// recovered size and expectedDecompressedSize is FailedDecompress — this
// is the codec's integrity check (spec §4.2, invariant 8).
func Decompress(in, out []byte, expectedDecompressedSize int) (int, error) {
	if len(in) == 0 {
		return 0, status.New(status.FailedDecompress, "empty compressed input")
	}
	if len(out) < expectedDecompressedSize {
		return 0, status.New(status.FailedDecompress, "output buffer smaller than expected decompressed size")
	}

	tag := in[0]
	payload := in[1:]

	if tag == 0 {
		if len(payload) != expectedDecompressedSize {
			return 0, status.New(status.FailedDecompress, "verbatim payload size mismatch")
		}
		copy(out, payload)
		return len(payload), nil
	}

	n, err := lz4.UncompressBlock(payload, out)
	if err != nil {
		return 0, status.Wrap(status.FailedDecompress, err, "lz4 decompress")
	}
	if n != expectedDecompressedSize {
		return 0, status.New(status.FailedDecompress, "decompressed size %d != expected %d", n, expectedDecompressedSize)
	}
	return n, nil
}
