package stats

import (
	"context"

	"github.com/shopspring/decimal"
)

// Aggregator reduces the entries of one bucket to a single value.
// To add an aggregate: implement this interface, register a Codec for its
// kind and add an entry to Aggregators.
type Aggregator interface {
	Key() Key
	// Identity is the value of a bucket with no entries.
	Identity() Value
	Aggregate(entries []Entry) Value
}

// Aggregators is the registry of all supported aggregates.
var Aggregators = map[AggregateKind]Aggregator{
	AggregateRevenue:   RevenueAggregator{},
	AggregateExpense:   ExpenseAggregator{},
	AggregateRidership: RidershipAggregator{},
}

// AggregatorFor returns the aggregator registered for kind.
func AggregatorFor(kind AggregateKind) (Aggregator, error) {
	agg, ok := Aggregators[kind]
	if !ok {
		return nil, &UnknownKindError{Category: "aggregate", Kind: string(kind)}
	}
	return agg, nil
}

// IsIdentity reports whether v equals the aggregator's empty-bucket value.
func IsIdentity(agg Aggregator, v Value) bool {
	return v.Equal(agg.Identity())
}

// RevenueAggregator sums ticket sale prices.
type RevenueAggregator struct{}

func (RevenueAggregator) Key() Key        { return Key{Event: EventTicketSale, Aggregate: AggregateRevenue} }
func (RevenueAggregator) Identity() Value { return Revenue{Amount: decimal.Zero} }

func (RevenueAggregator) Aggregate(entries []Entry) Value {
	total := decimal.Zero
	for _, e := range entries {
		if sale, ok := e.(TicketSale); ok {
			total = total.Add(sale.Price)
		}
	}
	return Revenue{Amount: total}
}

// ExpenseAggregator sums maintenance costs.
type ExpenseAggregator struct{}

func (ExpenseAggregator) Key() Key        { return Key{Event: EventMaintenance, Aggregate: AggregateExpense} }
func (ExpenseAggregator) Identity() Value { return Expense{Amount: decimal.Zero} }

func (ExpenseAggregator) Aggregate(entries []Entry) Value {
	total := decimal.Zero
	for _, e := range entries {
		if cost, ok := e.(MaintenanceCost); ok {
			total = total.Add(cost.Amount)
		}
	}
	return Expense{Amount: total}
}

// RidershipAggregator counts station exits.
type RidershipAggregator struct{}

func (RidershipAggregator) Key() Key        { return Key{Event: EventStationExit, Aggregate: AggregateRidership} }
func (RidershipAggregator) Identity() Value { return Ridership{} }

func (RidershipAggregator) Aggregate(entries []Entry) Value {
	var n int64
	for _, e := range entries {
		if _, ok := e.(StationExit); ok {
			n++
		}
	}
	return Ridership{Count: n}
}

// EntrySource yields the persisted entries of one bucket.
type EntrySource interface {
	Entries(ctx context.Context, kind EventKind, index int64) ([]Entry, error)
}

// AggregateRange reduces every persisted entry in [start, end] with a single
// Aggregate call. ok is false when the range holds no entries at all.
func AggregateRange(ctx context.Context, src EntrySource, agg Aggregator, start, end int64) (Value, bool, error) {
	if err := CheckRange(start, end); err != nil {
		return nil, false, err
	}

	var all []Entry
	for idx := start; ; idx++ {
		if err := ctx.Err(); err != nil {
			return nil, false, err
		}
		entries, err := src.Entries(ctx, agg.Key().Event, idx)
		if err != nil {
			return nil, false, err
		}
		all = append(all, entries...)
		if idx == end {
			break
		}
	}

	if len(all) == 0 {
		return nil, false, nil
	}
	return agg.Aggregate(all), true, nil
}
