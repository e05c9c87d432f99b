package v1

import (
	"fmt"
	"time"

	"github.com/aevon-lab/statengine/internal/core/stats"
	"github.com/shopspring/decimal"
)

// Event is the wire envelope for one recorded domain event.
// It separates the system attributes from the kind-specific Data payload.
type Event struct {
	// ID identifies the event for tracing. Generated by ingestion if omitted.
	ID string `json:"id"`

	// Kind selects the entry type: ticket_sale, maintenance or station_exit.
	Kind string `json:"kind"`

	// RecordedAt is when the event happened (client-side clock).
	// Defaults to the ingestion time. It does not pick the bucket: entries
	// always land in the bucket open when they are flushed.
	RecordedAt time.Time `json:"recorded_at"`

	// Data is the kind-specific payload, e.g. {"station": "north", "price": 2.5}.
	Data map[string]interface{} `json:"data"`
}

// Validate ensures the envelope names a known kind.
func (e *Event) Validate() error {
	if e.Kind == "" {
		return fmt.Errorf("kind is required")
	}
	if _, err := stats.ParseEventKind(e.Kind); err != nil {
		return err
	}
	return nil
}

// entryBuilders maps each event kind to the function that reads its payload.
var entryBuilders = map[stats.EventKind]func(e *Event) (stats.Entry, error){
	stats.EventTicketSale: func(e *Event) (stats.Entry, error) {
		price, err := requireDecimal(e.Data, "price")
		if err != nil {
			return nil, err
		}
		return stats.TicketSale{ID: e.ID, Station: stringField(e.Data, "station"), Price: price, RecordedAt: e.RecordedAt}, nil
	},
	stats.EventMaintenance: func(e *Event) (stats.Entry, error) {
		amount, err := requireDecimal(e.Data, "amount")
		if err != nil {
			return nil, err
		}
		return stats.MaintenanceCost{ID: e.ID, Asset: stringField(e.Data, "asset"), Amount: amount, RecordedAt: e.RecordedAt}, nil
	},
	stats.EventStationExit: func(e *Event) (stats.Entry, error) {
		return stats.StationExit{ID: e.ID, Station: stringField(e.Data, "station"), RecordedAt: e.RecordedAt}, nil
	},
}

// ToEntry converts a validated envelope into its domain entry.
func (e *Event) ToEntry() (stats.Entry, error) {
	kind, err := stats.ParseEventKind(e.Kind)
	if err != nil {
		return nil, err
	}
	build, ok := entryBuilders[kind]
	if !ok {
		return nil, &stats.UnknownKindError{Category: "event", Kind: e.Kind}
	}
	return build(e)
}

func requireDecimal(data map[string]interface{}, field string) (decimal.Decimal, error) {
	v, ok := stats.ExtractDecimal(data, field)
	if !ok {
		return v, fmt.Errorf("data.%s must be a number or numeric string", field)
	}
	return v, nil
}

func stringField(data map[string]interface{}, field string) string {
	s, _ := data[field].(string)
	return s
}
