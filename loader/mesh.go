package loader

import (
	"encoding/binary"
	"math"

	"github.com/ember-forge/pipeline/asset"
	"github.com/ember-forge/pipeline/assetmanager"
	"github.com/ember-forge/pipeline/ioblob"
	"github.com/ember-forge/pipeline/mathx"
	"github.com/ember-forge/pipeline/refl"
)

var MeshClassTag = refl.Intern("mesh")

// MeshPayload is a mesh asset's loaded form: the welded vertex/index
// buffers MeshImporter produced, plus its bounding box, ready for a GPU
// driver to upload as-is.
type MeshPayload struct {
	Vertices []mathx.Vertex3D
	Indices  []uint16
	Bounds   mathx.Extents3D
}

type MeshLoader struct{}

func (MeshLoader) Load(req *assetmanager.LoadRequest) (*asset.Asset, error) {
	tree, err := readArtifact(req)
	if err != nil {
		return nil, err
	}
	c := tree.Cursor()

	vertexCount, err := ioblob.ReadInt32(c, "vertex_count")
	if err != nil {
		return nil, err
	}
	indexCount, err := ioblob.ReadInt32(c, "index_count")
	if err != nil {
		return nil, err
	}
	vertexBytes, err := ioblob.ReadString(c, "vertices")
	if err != nil {
		return nil, err
	}
	indexBytes, err := ioblob.ReadString(c, "indices")
	if err != nil {
		return nil, err
	}

	vertices := decodeVertices([]byte(vertexBytes), int(vertexCount))
	indices := decodeIndices([]byte(indexBytes), int(indexCount))
	bounds := readExtents(c)

	payload := &MeshPayload{Vertices: vertices, Indices: indices, Bounds: bounds}
	return asset.NewAsset(req.Id, MeshClassTag, payload), nil
}

func decodeVertices(data []byte, count int) []mathx.Vertex3D {
	out := make([]mathx.Vertex3D, count)
	readFloat := func(off int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(data[off : off+4]))
	}
	const stride = 11 * 4
	for i := 0; i < count; i++ {
		base := i * stride
		out[i] = mathx.Vertex3D{
			Position: mathx.Vec3{X: readFloat(base), Y: readFloat(base + 4), Z: readFloat(base + 8)},
			Normal:   mathx.Vec3{X: readFloat(base + 12), Y: readFloat(base + 16), Z: readFloat(base + 20)},
			Texcoord: mathx.Vec2{X: readFloat(base + 24), Y: readFloat(base + 28)},
			Tangent:  mathx.Vec3{X: readFloat(base + 32), Y: readFloat(base + 36), Z: readFloat(base + 40)},
		}
	}
	return out
}

func decodeIndices(data []byte, count int) []uint16 {
	out := make([]uint16, count)
	for i := 0; i < count; i++ {
		out[i] = binary.LittleEndian.Uint16(data[i*2:])
	}
	return out
}

func readExtents(c *ioblob.Cursor) mathx.Extents3D {
	field := func(name string) float32 {
		v, ok := c.ReadValue(name)
		if !ok {
			return 0
		}
		return float32(v.Float())
	}
	return mathx.Extents3D{
		Min: mathx.Vec3{X: field("extents_min_x"), Y: field("extents_min_y"), Z: field("extents_min_z")},
		Max: mathx.Vec3{X: field("extents_max_x"), Y: field("extents_max_y"), Z: field("extents_max_z")},
	}
}
