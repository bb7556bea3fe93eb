package models

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// DateLayout renders date fields as MM/dd/yyyy.
	DateLayout = "01/02/2006"
	// DateTimeLayout renders datetime fields as MM/dd/yyyy hh:mm:ss. The hour is on a
	// 12-hour clock and there is no AM/PM marker.
	DateTimeLayout = "01/02/2006 03:04:05"
)

type ValueKind int

const (
	ValueKindEmpty ValueKind = iota
	ValueKindBool
	ValueKindDecimal
	ValueKindDate
	ValueKindDateTime
	ValueKindID
	ValueKindReference
	ValueKindInteger
	ValueKindString
)

// Reference is a polymorphic pointer to another record.
type Reference struct {
	ID   string `json:"Id"`
	Type string `json:"Type"`
}

// Value is a coerced attribute value. Exactly one payload is meaningful, selected by Kind.
type Value struct {
	Kind    ValueKind
	boolean bool
	number  decimal.Decimal
	integer int64
	time    time.Time
	text    string
	ref     Reference
}

func EmptyValue() Value {
	return Value{Kind: ValueKindEmpty}
}

func BoolValue(b bool) Value {
	return Value{Kind: ValueKindBool, boolean: b}
}

func DecimalValue(d decimal.Decimal) Value {
	return Value{Kind: ValueKindDecimal, number: d}
}

func DateValue(t time.Time) Value {
	return Value{Kind: ValueKindDate, time: t}
}

func DateTimeValue(t time.Time) Value {
	return Value{Kind: ValueKindDateTime, time: t}
}

func IDValue(id string) Value {
	return Value{Kind: ValueKindID, text: id}
}

func ReferenceValue(ref Reference) Value {
	return Value{Kind: ValueKindReference, ref: ref}
}

func IntegerValue(i int64) Value {
	return Value{Kind: ValueKindInteger, integer: i}
}

func StringValue(s string) Value {
	return Value{Kind: ValueKindString, text: s}
}

func (v Value) Bool() bool {
	return v.boolean
}

func (v Value) Decimal() decimal.Decimal {
	return v.number
}

func (v Value) Integer() int64 {
	return v.integer
}

func (v Value) Time() time.Time {
	return v.time
}

func (v Value) Reference() Reference {
	return v.ref
}

func (v Value) IsEmpty() bool {
	return v.Kind == ValueKindEmpty
}

// String renders the value the way it is merged into a document.
func (v Value) String() string {
	switch v.Kind {
	case ValueKindBool:
		return strconv.FormatBool(v.boolean)
	case ValueKindDecimal:
		return v.number.String()
	case ValueKindDate:
		return v.time.Format(DateLayout)
	case ValueKindDateTime:
		return v.time.Format(DateTimeLayout)
	case ValueKindInteger:
		return strconv.FormatInt(v.integer, 10)
	case ValueKindReference:
		return v.ref.ID
	case ValueKindID, ValueKindString:
		return v.text
	}
	return ""
}
