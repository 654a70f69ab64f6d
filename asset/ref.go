package asset

import "github.com/ember-forge/pipeline/internal/status"

// Resolver is the narrow surface AssetRef needs from an asset manager,
// kept as an interface here so this package has no import-cycle
// dependency on assetmanager: assetmanager.Manager satisfies it.
type Resolver interface {
	Resolve(id Id) (Ref, error)
}

// AssetRef is a deferred, typed reference to another asset — what an
// importer/loader embeds in a struct field to mean "depends on this other
// asset, resolved lazily" (spec §3, §4.4). It serializes as just the
// target Id; resolution goes through a Resolver and caches a Weak handle
// so repeated Resolve calls are cheap while some other strong reference
// keeps the target alive.
type AssetRef[T any] struct {
	id     Id
	cached Weak
}

func NewAssetRef[T any](id Id) *AssetRef[T] {
	return &AssetRef[T]{id: id}
}

func (r *AssetRef[T]) Id() Id { return r.id }

func (r *AssetRef[T]) IsSet() bool { return r.id.IsValid() }

// Resolve returns the typed payload and the Ref keeping it alive. Callers
// own the returned Ref and must call Release() when done with it.
func (r *AssetRef[T]) Resolve(resolver Resolver) (*T, Ref, error) {
	if !r.id.IsValid() {
		return nil, Ref{}, status.New(status.InvalidParameter, "resolving an unset AssetRef")
	}
	if cached, ok := r.cached.Upgrade(); ok {
		if payload, ok := cached.Asset().Payload.(*T); ok {
			return payload, cached, nil
		}
		cached.Release()
		return nil, Ref{}, status.New(status.InvalidData, "asset %s payload type mismatch", r.id)
	}

	ref, err := resolver.Resolve(r.id)
	if err != nil {
		return nil, Ref{}, err
	}
	r.cached = ref.Weak()
	payload, ok := ref.Asset().Payload.(*T)
	if !ok {
		ref.Release()
		return nil, Ref{}, status.New(status.InvalidData, "asset %s payload type mismatch", r.id)
	}
	return payload, ref, nil
}
