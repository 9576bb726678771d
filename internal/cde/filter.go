package cde

// HazardFilter decides which hazards a query ignores. The set of filters is
// closed: BinFilter, QZFilter, EntityFilter and CombinedFilter. A nil
// HazardFilter ignores nothing.
type HazardFilter interface {
	// IsIrrelevant reports whether the query should ignore the entity.
	IsIrrelevant(e HazardEntity) bool
	hazardFilter()
}

// BinFilter ignores every hazard that belongs to the bin: its exterior,
// holes and quality zones. Only placed items remain relevant.
type BinFilter struct{}

func (BinFilter) IsIrrelevant(e HazardEntity) bool {
	return e.Kind != KindPlacedItem
}

func (BinFilter) hazardFilter() {}

// QZFilter ignores inferior quality zones whose quality is at least Cutoff.
// An item with base quality q tolerates every zone of quality q or better.
type QZFilter struct {
	Cutoff int
}

func (f QZFilter) IsIrrelevant(e HazardEntity) bool {
	return e.Kind == KindInferiorQualityZone && e.Quality >= f.Cutoff
}

func (QZFilter) hazardFilter() {}

// EntityFilter ignores a fixed set of entities.
type EntityFilter struct {
	entities map[HazardEntity]struct{}
}

// NewEntityFilter returns a filter ignoring exactly the given entities.
func NewEntityFilter(entities ...HazardEntity) EntityFilter {
	m := make(map[HazardEntity]struct{}, len(entities))
	for _, e := range entities {
		m[e] = struct{}{}
	}
	return EntityFilter{entities: m}
}

func (f EntityFilter) IsIrrelevant(e HazardEntity) bool {
	_, ok := f.entities[e]
	return ok
}

// Entities returns the ignored entities in no particular order.
func (f EntityFilter) Entities() []HazardEntity {
	out := make([]HazardEntity, 0, len(f.entities))
	for e := range f.entities {
		out = append(out, e)
	}
	return out
}

func (EntityFilter) hazardFilter() {}

// CombinedFilter ignores an entity when any of its filters does.
type CombinedFilter struct {
	Filters []HazardFilter
}

func (f CombinedFilter) IsIrrelevant(e HazardEntity) bool {
	for _, sub := range f.Filters {
		if sub != nil && sub.IsIrrelevant(e) {
			return true
		}
	}
	return false
}

func (CombinedFilter) hazardFilter() {}

// Combine joins filters, dropping nil ones. It returns nil when nothing
// remains and the single filter when only one does.
func Combine(filters ...HazardFilter) HazardFilter {
	var kept []HazardFilter
	for _, f := range filters {
		if f != nil {
			kept = append(kept, f)
		}
	}
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	}
	return CombinedFilter{Filters: kept}
}

func isIrrelevant(f HazardFilter, e HazardEntity) bool {
	return f != nil && f.IsIrrelevant(e)
}

// IrrelevantEntities returns the entities among hazards that filter ignores.
func IrrelevantEntities(filter HazardFilter, hazards []Hazard) []HazardEntity {
	var out []HazardEntity
	for _, h := range hazards {
		if isIrrelevant(filter, h.Entity) {
			out = append(out, h.Entity)
		}
	}
	return out
}
