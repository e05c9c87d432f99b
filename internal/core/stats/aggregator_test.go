package stats

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregators_Aggregate(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mixed := []Entry{
		TicketSale{Station: "north", Price: decimal.RequireFromString("2.50"), RecordedAt: now},
		MaintenanceCost{Asset: "escalator-3", Amount: decimal.RequireFromString("120.75"), RecordedAt: now},
		StationExit{Station: "north", RecordedAt: now},
		TicketSale{Station: "south", Price: decimal.RequireFromString("3.25"), RecordedAt: now},
		StationExit{Station: "south", RecordedAt: now},
		StationExit{Station: "north", RecordedAt: now},
	}

	tests := []struct {
		name    string
		kind    AggregateKind
		entries []Entry
		want    Value
	}{
		{name: "revenue sums prices", kind: AggregateRevenue, entries: mixed, want: Revenue{Amount: decimal.RequireFromString("5.75")}},
		{name: "expense sums amounts", kind: AggregateExpense, entries: mixed, want: Expense{Amount: decimal.RequireFromString("120.75")}},
		{name: "ridership counts exits", kind: AggregateRidership, entries: mixed, want: Ridership{Count: 3}},
		{name: "revenue of nothing", kind: AggregateRevenue, entries: nil, want: Revenue{Amount: decimal.Zero}},
		{name: "ridership of nothing", kind: AggregateRidership, entries: []Entry{}, want: Ridership{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			agg, err := AggregatorFor(tc.kind)
			require.NoError(t, err)
			got := agg.Aggregate(tc.entries)
			assert.True(t, tc.want.Equal(got), "want %s, got %s", tc.want, got)
		})
	}
}

func TestAggregators_IdentityMatchesEmptyAggregate(t *testing.T) {
	for kind, agg := range Aggregators {
		t.Run(string(kind), func(t *testing.T) {
			require.Equal(t, kind, agg.Key().Aggregate)
			require.True(t, IsIdentity(agg, agg.Aggregate(nil)))
		})
	}
}

func TestAggregatorFor_Unknown(t *testing.T) {
	_, err := AggregatorFor("profit")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrUnknownKind))

	var uk *UnknownKindError
	require.ErrorAs(t, err, &uk)
	require.Equal(t, "profit", uk.Kind)
}

type fakeSource map[int64][]Entry

func (f fakeSource) Entries(_ context.Context, _ EventKind, index int64) ([]Entry, error) {
	return f[index], nil
}

func TestAggregateRange(t *testing.T) {
	sale := func(p string) Entry {
		return TicketSale{Station: "north", Price: decimal.RequireFromString(p)}
	}
	src := fakeSource{
		3: {sale("1.00")},
		5: {sale("2.00"), sale("0.50")},
	}
	agg := RevenueAggregator{}

	t.Run("sums across buckets", func(t *testing.T) {
		v, ok, err := AggregateRange(context.Background(), src, agg, 3, 5)
		require.NoError(t, err)
		require.True(t, ok)
		require.True(t, Revenue{Amount: decimal.RequireFromString("3.50")}.Equal(v))
	})

	t.Run("empty range reports no value", func(t *testing.T) {
		v, ok, err := AggregateRange(context.Background(), src, agg, 6, 9)
		require.NoError(t, err)
		require.False(t, ok)
		require.Nil(t, v)
	})

	t.Run("single bucket", func(t *testing.T) {
		v, ok, err := AggregateRange(context.Background(), src, agg, 5, 5)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "2.5", v.String())
	})

	t.Run("reversed range", func(t *testing.T) {
		_, _, err := AggregateRange(context.Background(), src, agg, 5, 3)
		require.ErrorIs(t, err, ErrInvalidRange)
	})
}

type countingAggregator struct {
	RidershipAggregator
	calls int
}

func (c *countingAggregator) Aggregate(entries []Entry) Value {
	c.calls++
	return c.RidershipAggregator.Aggregate(entries)
}

func TestAggregateRange_SingleReduction(t *testing.T) {
	exit := StationExit{Station: "east"}
	src := fakeSource{1: {exit}, 2: {exit, exit}, 4: {exit}}
	agg := &countingAggregator{}

	v, ok, err := AggregateRange(context.Background(), src, agg, 1, 4)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, agg.calls)
	require.True(t, Ridership{Count: 4}.Equal(v))
}

func TestParseKinds(t *testing.T) {
	ek, err := ParseEventKind("maintenance")
	require.NoError(t, err)
	require.Equal(t, EventMaintenance, ek)

	ak, err := ParseAggregateKind("ridership")
	require.NoError(t, err)
	require.Equal(t, AggregateRidership, ak)

	_, err = ParseEventKind("refund")
	require.ErrorIs(t, err, ErrUnknownKind)
	_, err = ParseAggregateKind("")
	require.ErrorIs(t, err, ErrUnknownKind)

	require.Equal(t, []EventKind{EventMaintenance, EventStationExit, EventTicketSale}, EventKinds())
}
