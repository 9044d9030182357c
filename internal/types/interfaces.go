package types

// PriceAggregator defines the interface for price aggregation
type PriceAggregator interface {
	// SetTickLevel updates the tick level for aggregation
	SetTickLevel(tick TickLevel)

	// GetTickLevel returns the current tick level
	GetTickLevel() TickLevel

	// AggregateBids aggregates bid price levels
	AggregateBids(levels []PriceLevel) []PriceLevel

	// AggregateAsks aggregates ask price levels
	AggregateAsks(levels []PriceLevel) []PriceLevel
}

// BookListener receives the output of one connection supervisor. Calls are
// serialized per supervisor.
type BookListener interface {
	// OnSnapshot receives every propagated snapshot (live or synthetic)
	OnSnapshot(snapshot *BookSnapshot)

	// OnStatus receives every connection state transition
	OnStatus(status Status)
}
