package query

import (
	"github.com/tripnest/catalog/internal/domain"
)

// Engine binds the pipeline to a set of per-domain defaults.
type Engine struct {
	defaults Defaults
}

func NewEngine(d Defaults) *Engine {
	return &Engine{defaults: d}
}

// Descriptor returns the descriptor of d. Vehicles use basis when it is set,
// otherwise the configured default basis.
func (e *Engine) Descriptor(d domain.Domain, basis PriceBasis) Descriptor {
	if d == domain.DomainVehicle {
		if basis == "" {
			basis = e.defaults.VehiclePriceBasis
		}
		desc := VehicleDescriptor(ParsePriceBasis(string(basis)))
		desc.PageSize = pageSizeOr(e.defaults.Vehicle.PageSize, desc.PageSize)
		return desc
	}
	desc, ok := DescriptorFor(d)
	if !ok {
		return Descriptor{Domain: d, PageSize: DefaultPageSize}
	}
	desc.PageSize = pageSizeOr(e.defaults.For(d).PageSize, desc.PageSize)
	return desc
}

// DefaultQuery is the state a listing page mounts with. The configured
// vehicle price range is expressed in the configured basis, so it is left
// out when basis selects another one.
func (e *Engine) DefaultQuery(d domain.Domain, basis PriceBasis) domain.QueryState {
	def := e.defaults.For(d)
	q := domain.QueryState{
		SortKey:  def.SortKey,
		Page:     1,
		PageSize: def.PageSize,
	}
	if d == domain.DomainVehicle && basis != "" &&
		ParsePriceBasis(string(basis)) != ParsePriceBasis(string(e.defaults.VehiclePriceBasis)) {
		return q
	}
	pr := def.PriceRange
	q.PriceRange = &pr
	return q
}

// Run normalizes raw records and executes q over them.
func (e *Engine) Run(raw []domain.RawRecord, q domain.QueryState, desc Descriptor) domain.Page {
	return Execute(NormalizeAll(raw, desc.Domain), q, desc)
}

func pageSizeOr(n, def int) int {
	if n > 0 {
		return min(n, MaxPageSize)
	}
	return def
}
