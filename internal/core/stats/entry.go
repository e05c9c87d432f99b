package stats

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Entry is a single recorded domain event.
type Entry interface {
	Kind() EventKind
}

// TicketSale is recorded when a customer pays for a ride.
type TicketSale struct {
	ID         string          `json:"id,omitempty"`
	Station    string          `json:"station"`
	Price      decimal.Decimal `json:"price"`
	RecordedAt time.Time       `json:"recorded_at"`
}

func (TicketSale) Kind() EventKind { return EventTicketSale }

// MaintenanceCost is recorded when money is spent keeping an asset running.
type MaintenanceCost struct {
	ID         string          `json:"id,omitempty"`
	Asset      string          `json:"asset"`
	Amount     decimal.Decimal `json:"amount"`
	RecordedAt time.Time       `json:"recorded_at"`
}

func (MaintenanceCost) Kind() EventKind { return EventMaintenance }

// StationExit is recorded when a customer leaves through a station gate.
type StationExit struct {
	ID         string    `json:"id,omitempty"`
	Station    string    `json:"station"`
	RecordedAt time.Time `json:"recorded_at"`
}

func (StationExit) Kind() EventKind { return EventStationExit }

// entryDecoders is the registry of persistable event kinds.
// To add a kind: define its struct and register a decoder here.
var entryDecoders = map[EventKind]func([]byte) (Entry, error){
	EventTicketSale:  decodeAs[TicketSale],
	EventMaintenance: decodeAs[MaintenanceCost],
	EventStationExit: decodeAs[StationExit],
}

func decodeAs[T Entry](data []byte) (Entry, error) {
	var e T
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return e, nil
}

// EncodeEntry serializes an entry into a single-line JSON record.
func EncodeEntry(e Entry) ([]byte, error) {
	if _, ok := entryDecoders[e.Kind()]; !ok {
		return nil, &UnknownKindError{Category: "event", Kind: string(e.Kind())}
	}
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode %s entry: %w", e.Kind(), err)
	}
	return data, nil
}

// DecodeEntry parses a record written by EncodeEntry.
func DecodeEntry(kind EventKind, data []byte) (Entry, error) {
	decode, ok := entryDecoders[kind]
	if !ok {
		return nil, &UnknownKindError{Category: "event", Kind: string(kind)}
	}
	e, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s entry: %w", kind, err)
	}
	return e, nil
}
