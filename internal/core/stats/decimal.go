package stats

import "github.com/shopspring/decimal"

// ExtractDecimal pulls a numeric value from a payload map by field name.
// ok is false if the field is missing, empty, or not a recognized numeric type.
// JSON numbers unmarshal to float64; NewFromFloat gives the shortest exact decimal for them.
func ExtractDecimal(data map[string]interface{}, field string) (decimal.Decimal, bool) {
	if field == "" {
		return decimal.Zero, false
	}
	v, ok := data[field]
	if !ok {
		return decimal.Zero, false
	}
	switch val := v.(type) {
	case float64:
		return decimal.NewFromFloat(val), true
	case float32:
		return decimal.NewFromFloat32(val), true
	case int:
		return decimal.NewFromInt(int64(val)), true
	case int64:
		return decimal.NewFromInt(val), true
	case int32:
		return decimal.NewFromInt(int64(val)), true
	case string:
		d, err := decimal.NewFromString(val)
		if err == nil {
			return d, true
		}
	}
	return decimal.Zero, false
}
