package importing

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mohammadpnp/asset-import/internal/domain/asset"
	"github.com/mohammadpnp/asset-import/internal/domain/attribute"
	"github.com/shopspring/decimal"
)

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"01-02-06",
	"1-2-06",
	"2-Jan-2006",
	"02-Jan-2006",
	"2 Jan 2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

func text(v attribute.Value) string {
	return strings.TrimSpace(v.Text())
}

// Column limits of the assets table.
const maxTextLen = 255

var maxPrice = decimal.New(1, 10)

func boundedText(v attribute.Value) (*string, error) {
	s := textPtr(v)
	if s != nil {
		if err := checkLength(*s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func checkLength(s string) error {
	if n := utf8.RuneCountInString(s); n > maxTextLen {
		return fmt.Errorf("value is %d characters, limit is %d", n, maxTextLen)
	}
	return nil
}

// parsePrice is parseMoney rounded to cents and bounded to what numeric(12,2)
// holds.
func parsePrice(v attribute.Value) (decimal.Decimal, error) {
	d, err := parseMoney(v)
	if err != nil {
		return decimal.Decimal{}, err
	}
	d = d.Round(2)
	if d.Abs().GreaterThanOrEqual(maxPrice) {
		return decimal.Decimal{}, fmt.Errorf("price %s out of range", d.String())
	}
	return d, nil
}

func textPtr(v attribute.Value) *string {
	s := text(v)
	if s == "" {
		return nil
	}
	return &s
}

func parseDate(v attribute.Value) (time.Time, error) {
	if t, ok := v.Time(); ok {
		return t, nil
	}
	raw := text(v)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", raw)
}

func parseMoney(v attribute.Value) (decimal.Decimal, error) {
	if f, ok := v.Float(); ok {
		return decimal.NewFromFloat(f), nil
	}
	raw := text(v)
	cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(raw)
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid price %q", raw)
	}
	return d, nil
}

func parseBool(v attribute.Value) (bool, error) {
	if b, ok := v.Bool(); ok {
		return b, nil
	}
	if f, ok := v.Float(); ok {
		return f != 0, nil
	}
	switch strings.ToLower(text(v)) {
	case "true", "yes", "y", "1", "active", "enabled":
		return true, nil
	case "false", "no", "n", "0", "inactive", "disabled":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", text(v))
}

// coerceField converts a cell to the declared type of a dynamic field.
func coerceField(fieldType asset.FieldType, v attribute.Value) (attribute.Value, error) {
	switch fieldType {
	case asset.FieldTypeInteger:
		if f, ok := v.Float(); ok {
			if math.IsInf(f, 0) || math.Trunc(f) != f {
				return attribute.Null(), fmt.Errorf("invalid integer %v", f)
			}
			return attribute.Number(f), nil
		}
		n, err := strconv.ParseInt(text(v), 10, 64)
		if err != nil {
			return attribute.Null(), fmt.Errorf("invalid integer %q", text(v))
		}
		return attribute.Number(float64(n)), nil
	case asset.FieldTypeBoolean:
		b, err := parseBool(v)
		if err != nil {
			return attribute.Null(), err
		}
		return attribute.Bool(b), nil
	case asset.FieldTypeDate:
		t, err := parseDate(v)
		if err != nil {
			return attribute.Null(), err
		}
		return attribute.Date(t), nil
	default:
		return attribute.String(text(v)), nil
	}
}
