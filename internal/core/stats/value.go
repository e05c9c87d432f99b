package stats

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// Value is the aggregate of one bucket for one aggregate kind.
type Value interface {
	AggregateKind() AggregateKind
	// Number renders the value as a decimal for transport.
	Number() decimal.Decimal
	Equal(other Value) bool
	String() string
}

// Revenue is the sum of ticket prices in a bucket.
type Revenue struct {
	Amount decimal.Decimal
}

func (Revenue) AggregateKind() AggregateKind { return AggregateRevenue }
func (r Revenue) Number() decimal.Decimal    { return r.Amount }
func (r Revenue) String() string             { return r.Amount.String() }

func (r Revenue) Equal(other Value) bool {
	o, ok := other.(Revenue)
	return ok && r.Amount.Equal(o.Amount)
}

// Expense is the sum of maintenance costs in a bucket.
type Expense struct {
	Amount decimal.Decimal
}

func (Expense) AggregateKind() AggregateKind { return AggregateExpense }
func (e Expense) Number() decimal.Decimal    { return e.Amount }
func (e Expense) String() string             { return e.Amount.String() }

func (e Expense) Equal(other Value) bool {
	o, ok := other.(Expense)
	return ok && e.Amount.Equal(o.Amount)
}

// Ridership counts station exits in a bucket.
type Ridership struct {
	Count int64
}

func (Ridership) AggregateKind() AggregateKind { return AggregateRidership }
func (r Ridership) Number() decimal.Decimal    { return decimal.NewFromInt(r.Count) }
func (r Ridership) String() string             { return strconv.FormatInt(r.Count, 10) }

func (r Ridership) Equal(other Value) bool {
	o, ok := other.(Ridership)
	return ok && r.Count == o.Count
}
