package ioblob

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/ember-forge/pipeline/internal/status"
)

// binaryMagic tags every artifact blob written by the binary backend
// (spec §6: "Artifact blob: magic-tagged binary stream encoding a tree").
const binaryMagic uint32 = 0x494f5452 // "IOTR"

const binaryVersion uint8 = 1

// BinaryBackend is the artifact on-disk format: a magic-tagged stream
// encoding a Node tree, with an optional LZ4-compressed payload carrying
// the uncompressed length in its header (spec §4.2, §6).
type BinaryBackend struct {
	// Compress enables LZ4 compression of the encoded payload.
	Compress bool
}

func (b BinaryBackend) Save(t *Tree) ([]byte, error) {
	var body bytes.Buffer
	if err := writeNode(&body, t.Root); err != nil {
		return nil, err
	}

	var out bytes.Buffer
	binary.Write(&out, binary.LittleEndian, binaryMagic)
	out.WriteByte(binaryVersion)

	if b.Compress {
		raw := body.Bytes()
		compressed := make([]byte, Estimate(len(raw)))
		n, err := Compress(raw, compressed)
		if err != nil {
			return nil, err
		}
		out.WriteByte(1)
		binary.Write(&out, binary.LittleEndian, uint32(len(raw)))
		binary.Write(&out, binary.LittleEndian, uint32(n))
		out.Write(compressed[:n])
	} else {
		out.WriteByte(0)
		out.Write(body.Bytes())
	}
	return out.Bytes(), nil
}

func (b BinaryBackend) Parse(data []byte) (*Tree, error) {
	r := bytes.NewReader(data)
	var magic uint32
	if err := binary.Read(r, binary.LittleEndian, &magic); err != nil || magic != binaryMagic {
		return nil, status.New(status.FailedParse, "not an ioblob binary stream")
	}
	version, err := r.ReadByte()
	if err != nil || version != binaryVersion {
		return nil, status.New(status.FailedParse, "unsupported ioblob binary version")
	}
	compressedFlag, err := r.ReadByte()
	if err != nil {
		return nil, status.New(status.FailedParse, "truncated ioblob stream")
	}

	var body []byte
	if compressedFlag == 1 {
		var uncompressedLen, compressedLen uint32
		if err := binary.Read(r, binary.LittleEndian, &uncompressedLen); err != nil {
			return nil, status.New(status.FailedParse, "truncated ioblob header")
		}
		if err := binary.Read(r, binary.LittleEndian, &compressedLen); err != nil {
			return nil, status.New(status.FailedParse, "truncated ioblob header")
		}
		payload := make([]byte, compressedLen)
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, status.New(status.FailedParse, "truncated ioblob payload")
		}
		body = make([]byte, uncompressedLen)
		if _, err := Decompress(payload, body, int(uncompressedLen)); err != nil {
			return nil, err
		}
	} else {
		rest, err := io.ReadAll(r)
		if err != nil {
			return nil, status.New(status.FailedParse, "truncated ioblob payload")
		}
		body = rest
	}

	root, _, err := readNode(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	return &Tree{Root: root}, nil
}

func writeNode(w *bytes.Buffer, n *Node) error {
	w.WriteByte(byte(n.Kind))
	writeString(w, n.Name)

	switch n.Kind {
	case KindMap, KindList:
		binary.Write(w, binary.LittleEndian, uint32(len(n.Children)))
		for _, ch := range n.Children {
			if err := writeNode(w, ch); err != nil {
				return err
			}
		}
	case KindBool:
		if n.Value.Bool() {
			w.WriteByte(1)
		} else {
			w.WriteByte(0)
		}
	case KindInt32:
		binary.Write(w, binary.LittleEndian, n.Value.Int32())
	case KindUint32:
		binary.Write(w, binary.LittleEndian, n.Value.Uint32())
	case KindInt16:
		binary.Write(w, binary.LittleEndian, n.Value.Int16())
	case KindUsize:
		binary.Write(w, binary.LittleEndian, n.Value.Usize())
	case KindFloat:
		binary.Write(w, binary.LittleEndian, n.Value.Float())
	case KindString, KindInternedString:
		writeString(w, n.Value.String())
	default:
		return status.New(status.InvalidData, "unknown node kind %d", n.Kind)
	}
	return nil
}

func writeString(w *bytes.Buffer, s string) {
	binary.Write(w, binary.LittleEndian, uint32(len(s)))
	w.WriteString(s)
}

func readString(r *bytes.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", status.New(status.FailedParse, "truncated string length")
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", status.New(status.FailedParse, "truncated string bytes")
	}
	return string(buf), nil
}

func readNode(r *bytes.Reader) (*Node, int, error) {
	kindByte, err := r.ReadByte()
	if err != nil {
		return nil, 0, status.New(status.FailedParse, "truncated node kind")
	}
	kind := Kind(kindByte)
	name, err := readString(r)
	if err != nil {
		return nil, 0, err
	}
	n := &Node{Kind: kind, Name: name}

	switch kind {
	case KindMap, KindList:
		var count uint32
		if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
			return nil, 0, status.New(status.FailedParse, "truncated child count")
		}
		for i := uint32(0); i < count; i++ {
			child, _, err := readNode(r)
			if err != nil {
				return nil, 0, err
			}
			n.Children = append(n.Children, child)
		}
	case KindBool:
		b, err := r.ReadByte()
		if err != nil {
			return nil, 0, status.New(status.FailedParse, "truncated bool")
		}
		n.Value = BoolValue(b != 0)
	case KindInt32:
		var v int32
		if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
			return nil, 0, status.New(status.FailedParse, "truncated int32")
		}
		n.Value = Int32Value(v)
	case KindUint32:
		var v uint32
		if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
			return nil, 0, status.New(status.FailedParse, "truncated uint32")
		}
		n.Value = Uint32Value(v)
	case KindInt16:
		var v int16
		if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
			return nil, 0, status.New(status.FailedParse, "truncated int16")
		}
		n.Value = Int16Value(v)
	case KindUsize:
		var v uint64
		if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
			return nil, 0, status.New(status.FailedParse, "truncated usize")
		}
		n.Value = UsizeValue(v)
	case KindFloat:
		var v float64
		if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
			return nil, 0, status.New(status.FailedParse, "truncated float")
		}
		n.Value = FloatValue(v)
	case KindString, KindInternedString:
		s, err := readString(r)
		if err != nil {
			return nil, 0, err
		}
		n.Value = Value{Kind: kind, s: s}
	default:
		return nil, 0, status.New(status.InvalidData, "unknown node kind %d", kind)
	}
	return n, 0, nil
}
