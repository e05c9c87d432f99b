package stats

import "sort"

// EventKind identifies a kind of recorded domain event.
type EventKind string

// AggregateKind identifies a kind of per-bucket aggregate value.
type AggregateKind string

const (
	EventTicketSale  EventKind = "ticket_sale"
	EventMaintenance EventKind = "maintenance"
	EventStationExit EventKind = "station_exit"
)

const (
	AggregateRevenue   AggregateKind = "revenue"
	AggregateExpense   AggregateKind = "expense"
	AggregateRidership AggregateKind = "ridership"
)

// Key names the (event kind, aggregate kind) pair a cached page belongs to.
type Key struct {
	Event     EventKind
	Aggregate AggregateKind
}

func (k Key) String() string {
	return string(k.Event) + "-" + string(k.Aggregate)
}

// ParseEventKind returns the registered event kind named s.
func ParseEventKind(s string) (EventKind, error) {
	kind := EventKind(s)
	if _, ok := entryDecoders[kind]; !ok {
		return "", &UnknownKindError{Category: "event", Kind: s}
	}
	return kind, nil
}

// ParseAggregateKind returns the registered aggregate kind named s.
func ParseAggregateKind(s string) (AggregateKind, error) {
	kind := AggregateKind(s)
	if _, ok := Aggregators[kind]; !ok {
		return "", &UnknownKindError{Category: "aggregate", Kind: s}
	}
	return kind, nil
}

// EventKinds lists every registered event kind in lexical order.
func EventKinds() []EventKind {
	kinds := make([]EventKind, 0, len(entryDecoders))
	for k := range entryDecoders {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
