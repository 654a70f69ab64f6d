package shader

import (
	"sort"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/ember-forge/pipeline/internal/status"
)

// optionVariant is one caller-supplied (option, variant) override.
type optionVariant struct {
	option  string
	variant int
}

// ShaderPermutation is the cache key and compile input built from
// (technique, pass, option overrides, vertex-attribute mask) (spec §4.8
// phase 2). Once built it is compared by value through Equal: two
// permutations are equal iff their technique, pass, option bits and vertex
// masks match.
type ShaderPermutation struct {
	Technique    string
	Pass         string
	OptionBits   uint64
	VertexMask   uint32
	resolved     []optionVariant // kept for readable diagnostics only
}

// BuildPermutation resolves technique/pass names through the reflection's
// maps and overrides base option variants with the caller's choices;
// unresolved option names are ignored (spec: "unresolved options stay at
// base").
func BuildPermutation(r *Reflection, technique, pass string, overrides map[string]string, vertexMask uint32) (*ShaderPermutation, error) {
	tech, ok := r.Techniques[technique]
	if !ok {
		return nil, status.New(status.NoValue, "unknown technique %q", technique)
	}
	p, ok := tech.PassByName(pass)
	if !ok {
		return nil, status.New(status.NoValue, "unknown pass %q in technique %q", pass, technique)
	}

	var bits uint64
	var resolved []optionVariant
	for _, opt := range p.Options {
		variantIdx := 0 // base
		if chosen, ok := overrides[opt.Name]; ok {
			if idx := opt.VariantIndex(chosen); idx >= 0 {
				variantIdx = idx
			}
		}
		bits |= uint64(variantIdx) << uint(opt.BitOffset)
		resolved = append(resolved, optionVariant{option: opt.Name, variant: variantIdx})
	}

	return &ShaderPermutation{
		Technique: technique, Pass: pass,
		OptionBits: bits, VertexMask: vertexMask,
		resolved: resolved,
	}, nil
}

// Hash is the 64-bit structural hash used as the shader cache's secondary
// key (spec §4.8 phase 2/3). Technique and pass names are folded in via
// FNV-1a so permutations of different passes never collide purely on bits.
func (p *ShaderPermutation) Hash() uint64 {
	h := uint64(14695981039346656037)
	fold := func(s string) {
		for i := 0; i < len(s); i++ {
			h ^= uint64(s[i])
			h *= 1099511628211
		}
	}
	fold(p.Technique)
	fold(p.Pass)
	h ^= p.OptionBits
	h *= 1099511628211
	h ^= uint64(p.VertexMask)
	h *= 1099511628211
	return h
}

// Equal is the canonical equality the cache key relies on; Hash alone is
// not authoritative (spec's 0.1% collision budget assumes hash buckets are
// still equality-checked).
func (p *ShaderPermutation) Equal(o *ShaderPermutation) bool {
	return p.Technique == o.Technique && p.Pass == o.Pass &&
		p.OptionBits == o.OptionBits && p.VertexMask == o.VertexMask
}

// sortedResolved returns the resolved option/variant pairs in option-name
// order, for deterministic diagnostics and source synthesis.
func (p *ShaderPermutation) sortedResolved() []optionVariant {
	out := append([]optionVariant{}, p.resolved...)
	sort.Slice(out, func(i, j int) bool { return out[i].option < out[j].option })
	return out
}

// EnumerateReachablePermutations builds the full cartesian product of a
// pass's options' variants against the given vertex-attribute masks,
// validating spec §3's closure invariant: "the set of reachable
// permutations is exactly ∏ (variants-per-option) × |vertex-attribute
// combinations used|". It's also how a build step can precompile a pass's
// entire permutation space ahead of time instead of discovering members of
// it lazily at draw time.
func EnumerateReachablePermutations(r *Reflection, technique, pass string, vertexMasks []uint32) ([]*ShaderPermutation, error) {
	tech, ok := r.Techniques[technique]
	if !ok {
		return nil, status.New(status.NoValue, "unknown technique %q", technique)
	}
	p, ok := tech.PassByName(pass)
	if !ok {
		return nil, status.New(status.NoValue, "unknown pass %q in technique %q", pass, technique)
	}

	combos := optionCombinations(p.Options)

	seen := make(map[uint64]*ShaderPermutation, len(combos)*len(vertexMasks))
	for _, mask := range vertexMasks {
		for _, overrides := range combos {
			perm, err := BuildPermutation(r, technique, pass, overrides, mask)
			if err != nil {
				return nil, err
			}
			seen[perm.Hash()] = perm
		}
	}

	out := maps.Values(seen)
	slices.SortFunc(out, func(a, b *ShaderPermutation) int {
		switch {
		case a.VertexMask != b.VertexMask:
			if a.VertexMask < b.VertexMask {
				return -1
			}
			return 1
		case a.OptionBits != b.OptionBits:
			if a.OptionBits < b.OptionBits {
				return -1
			}
			return 1
		default:
			return 0
		}
	})
	return out, nil
}

// optionCombinations is the set-algebra core of EnumerateReachablePermutations:
// the cartesian product of every option's variant set, expressed as one
// override map per combination.
func optionCombinations(opts []ShaderOption) []map[string]string {
	if len(opts) == 0 {
		return []map[string]string{{}}
	}
	rest := optionCombinations(opts[1:])
	out := make([]map[string]string, 0, len(opts[0].Variants)*len(rest))
	for _, variant := range opts[0].Variants {
		for _, r := range rest {
			combo := maps.Clone(r)
			combo[opts[0].Name] = variant
			out = append(out, combo)
		}
	}
	return out
}
