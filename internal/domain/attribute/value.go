package attribute

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

const dateLayout = "2006-01-02"

type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindDate
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindDate:
		return "date"
	default:
		return "null"
	}
}

// Value is a closed variant over the cell and attribute types the importer
// understands. The zero Value is null, which is also how an absent cell is
// represented.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
	t    time.Time
}

func Null() Value { return Value{} }

func String(s string) Value { return Value{kind: KindString, str: s} }

func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

func Date(t time.Time) Value {
	y, m, d := t.Date()
	return Value{kind: KindDate, t: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) Float() (float64, bool) { return v.num, v.kind == KindNumber }

func (v Value) Bool() (bool, bool) { return v.b, v.kind == KindBool }

func (v Value) Time() (time.Time, bool) { return v.t, v.kind == KindDate }

// Text renders the value the way it would appear in a spreadsheet cell.
func (v Value) Text() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindDate:
		return v.t.Format(dateLayout)
	default:
		return ""
	}
}

// Any returns a plain Go value suitable for JSON previews.
func (v Value) Any() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num
	case KindBool:
		return v.b
	case KindDate:
		return v.t.Format(dateLayout)
	default:
		return nil
	}
}

func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == other.str
	case KindNumber:
		return v.num == other.num
	case KindBool:
		return v.b == other.b
	case KindDate:
		return v.t.Equal(other.t)
	default:
		return true
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Any())
}

// UnmarshalJSON decodes scalars only. Dates come back as strings since JSON
// has no date type.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = Null()
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}

	switch typed := raw.(type) {
	case string:
		*v = String(typed)
	case bool:
		*v = Bool(typed)
	case json.Number:
		f, err := typed.Float64()
		if err != nil {
			return err
		}
		*v = Number(f)
	default:
		*v = String(string(data))
	}
	return nil
}
