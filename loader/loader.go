// Package loader implements assetmanager.Loader for every asset kind the
// importer package (C6) produces artifacts for (spec §4.6's fill_request
// step): it turns artifact bytes back into a live asset.Asset's Payload,
// never re-running the importer's decode/reflect work. Grounded on the
// teacher's engine/assets/loaders/*.go package (one file per kind behind a
// common interface), generalised to this pipeline's artifact-store-backed
// Pack model instead of the teacher's direct filesystem reads.
package loader

import (
	"github.com/ember-forge/pipeline/assetmanager"
	"github.com/ember-forge/pipeline/importer"
	"github.com/ember-forge/pipeline/ioblob"
)

// readArtifact fetches and decodes the asset's main artifact blob. Every
// importer's Runner.RunImport call writes the artifact under the artifact
// store's default "<id>.main.art" naming regardless of what the asset's
// Meta.PathOnDisk records (which importers set to the original source
// path, for diagnostics only) — so a loader always reads that same
// convention path from its Pack rather than trusting PathOnDisk.
func readArtifact(req *assetmanager.LoadRequest) (*ioblob.Tree, error) {
	data, err := req.Pack.ReadFile(req.Id.String() + ".main.art")
	if err != nil {
		return nil, err
	}
	return importer.DecodeArtifact(data)
}
