package asset

// DepCollector accumulates the set of assets another asset statically
// depends on, built up while an importer or loader walks its source data
// (spec §4.4's dependency collection step, which assetmanager.Manager
// later joins on before an asset is considered loaded).
type DepCollector struct {
	seen map[Id]struct{}
	deps []Id
}

func NewDepCollector() *DepCollector {
	return &DepCollector{seen: make(map[Id]struct{})}
}

// Add records id as a dependency, ignoring duplicates and the invalid
// sentinel.
func (d *DepCollector) Add(id Id) {
	if !id.IsValid() {
		return
	}
	if _, ok := d.seen[id]; ok {
		return
	}
	d.seen[id] = struct{}{}
	d.deps = append(d.deps, id)
}

func (d *DepCollector) Deps() []Id {
	return append([]Id(nil), d.deps...)
}

func (d *DepCollector) Len() int { return len(d.deps) }
