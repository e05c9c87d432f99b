package stats

import (
	"errors"
	"fmt"
	"math"
	"math/big"

	"github.com/shopspring/decimal"
	"google.golang.org/protobuf/encoding/protowire"
)

// codecVersion prefixes every encoded value so the payload layout can evolve.
const codecVersion = 1

var errCorruptValue = errors.New("corrupt aggregate value")

// Codec converts aggregate values to and from their binary page payload.
// Decoding an encoded value yields a value Equal to the original.
type Codec interface {
	// Append encodes v onto buf.
	Append(buf []byte, v Value) ([]byte, error)
	// Consume decodes one value from the front of b and reports the bytes read.
	Consume(b []byte) (Value, int, error)
}

var codecs = map[AggregateKind]Codec{
	AggregateRevenue: decimalCodec{
		kind: AggregateRevenue,
		wrap: func(d decimal.Decimal) Value { return Revenue{Amount: d} },
	},
	AggregateExpense: decimalCodec{
		kind: AggregateExpense,
		wrap: func(d decimal.Decimal) Value { return Expense{Amount: d} },
	},
	AggregateRidership: countCodec{},
}

// CodecFor returns the codec registered for kind.
func CodecFor(kind AggregateKind) (Codec, error) {
	c, ok := codecs[kind]
	if !ok {
		return nil, &UnknownKindError{Category: "aggregate", Kind: string(kind)}
	}
	return c, nil
}

// decimalCodec stores the exact coefficient and exponent of a decimal:
// version, zigzag exponent, sign, big-endian magnitude bytes.
type decimalCodec struct {
	kind AggregateKind
	wrap func(decimal.Decimal) Value
}

func (c decimalCodec) Append(buf []byte, v Value) ([]byte, error) {
	if v.AggregateKind() != c.kind {
		return nil, fmt.Errorf("encode %s: got %s value", c.kind, v.AggregateKind())
	}
	d := v.Number()
	coef := d.Coefficient()
	var sign uint64
	if coef.Sign() < 0 {
		sign = 1
	}

	buf = protowire.AppendVarint(buf, codecVersion)
	buf = protowire.AppendVarint(buf, protowire.EncodeZigZag(int64(d.Exponent())))
	buf = protowire.AppendVarint(buf, sign)
	buf = protowire.AppendBytes(buf, new(big.Int).Abs(coef).Bytes())
	return buf, nil
}

func (c decimalCodec) Consume(b []byte) (Value, int, error) {
	n, err := consumeVersion(b)
	if err != nil {
		return nil, 0, err
	}

	zexp, m := protowire.ConsumeVarint(b[n:])
	if m < 0 {
		return nil, 0, fmt.Errorf("%w: exponent: %v", errCorruptValue, protowire.ParseError(m))
	}
	n += m
	exp := protowire.DecodeZigZag(zexp)
	if exp < math.MinInt32 || exp > math.MaxInt32 {
		return nil, 0, fmt.Errorf("%w: exponent %d out of range", errCorruptValue, exp)
	}

	sign, m := protowire.ConsumeVarint(b[n:])
	if m < 0 {
		return nil, 0, fmt.Errorf("%w: sign: %v", errCorruptValue, protowire.ParseError(m))
	}
	n += m
	if sign > 1 {
		return nil, 0, fmt.Errorf("%w: sign %d", errCorruptValue, sign)
	}

	mag, m := protowire.ConsumeBytes(b[n:])
	if m < 0 {
		return nil, 0, fmt.Errorf("%w: magnitude: %v", errCorruptValue, protowire.ParseError(m))
	}
	n += m

	coef := new(big.Int).SetBytes(mag)
	if sign == 1 {
		coef.Neg(coef)
	}
	return c.wrap(decimal.NewFromBigInt(coef, int32(exp))), n, nil
}

// countCodec stores a ridership count as version then zigzag varint.
type countCodec struct{}

func (countCodec) Append(buf []byte, v Value) ([]byte, error) {
	r, ok := v.(Ridership)
	if !ok {
		return nil, fmt.Errorf("encode %s: got %s value", AggregateRidership, v.AggregateKind())
	}
	buf = protowire.AppendVarint(buf, codecVersion)
	buf = protowire.AppendVarint(buf, protowire.EncodeZigZag(r.Count))
	return buf, nil
}

func (countCodec) Consume(b []byte) (Value, int, error) {
	n, err := consumeVersion(b)
	if err != nil {
		return nil, 0, err
	}
	z, m := protowire.ConsumeVarint(b[n:])
	if m < 0 {
		return nil, 0, fmt.Errorf("%w: count: %v", errCorruptValue, protowire.ParseError(m))
	}
	return Ridership{Count: protowire.DecodeZigZag(z)}, n + m, nil
}

func consumeVersion(b []byte) (int, error) {
	version, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return 0, fmt.Errorf("%w: version: %v", errCorruptValue, protowire.ParseError(n))
	}
	if version != codecVersion {
		return 0, fmt.Errorf("%w: unsupported version %d", errCorruptValue, version)
	}
	return n, nil
}
