package refl

import "github.com/google/uuid"

// UUID is the 128-bit content-independent identity assigned to an asset on
// import and stable across renames (spec §3). It is never used as a
// runtime lookup key — that's AssetId's job — only stored in metadata.
type UUID = uuid.UUID

// NewUUID allocates a fresh random (v4) UUID, grounded on the teacher's use
// of google/uuid in engine/systems/renderview.go.
func NewUUID() UUID {
	return uuid.New()
}

// ParseUUID parses a canonical UUID string (e.g. read back from a .res
// metadata file).
func ParseUUID(s string) (UUID, error) {
	return uuid.Parse(s)
}

var NilUUID = uuid.Nil
