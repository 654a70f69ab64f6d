package assetmanager

import "github.com/ember-forge/pipeline/asset"

// LoadRequest is everything a Loader needs to turn an asset's metadata
// into a live Asset: the pack its bytes live in, and a Resolver to reach
// the already-loaded dependency assets meta.Deps named.
type LoadRequest struct {
	Id       asset.Id
	Meta     *asset.Meta
	Pack     Pack
	Resolver asset.Resolver
}

// Loader builds one Asset class from a LoadRequest (spec §4.6), registered
// against the manager under meta.Loader's tag. The importer/loader package
// provides concrete implementations; this interface lives here (not in
// package loader) so this package has no import-cycle dependency on it.
type Loader interface {
	Load(req *LoadRequest) (*asset.Asset, error)
}
