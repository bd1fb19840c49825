package ast

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"golog/internal/scope"
)

// Value is a literal carrying one concrete representation: bool,
// integer, floating, symbol-string, string, ordered list, or a map from
// field name to Value for compound types.
type Value struct {
	typ     scope.Type
	boolV   bool
	intV    int64
	floatV  float64
	strV    string // used for both Symbol and String kinds
	listV   []Value
	fieldsV map[string]Value
}

func BoolValue(b bool) Value   { return Value{typ: scope.Bool(), boolV: b} }
func IntValue(i int64) Value   { return Value{typ: scope.Int(), intV: i} }
func FloatValue(f float64) Value { return Value{typ: scope.Float(), floatV: f} }
func SymbolValue(s string) Value { return Value{typ: scope.Symbol(), strV: s} }
func StringValue(s string) Value { return Value{typ: scope.Str(), strV: s} }

func ListValue(elem scope.Type, vs []Value) Value {
	return Value{typ: scope.List(elem), listV: append([]Value(nil), vs...)}
}

func CompoundValue(typeName string, fields map[string]Value) Value {
	f := make(map[string]Value, len(fields))
	for k, v := range fields {
		f[k] = v
	}
	return Value{typ: scope.Compound(typeName), fieldsV: f}
}

func (v Value) Type() scope.Type { return v.typ }
func (v Value) Bool() bool       { return v.boolV }
func (v Value) Int() int64       { return v.intV }
func (v Value) Float() float64   { return v.floatV }
func (v Value) Symbol() string   { return v.strV }
func (v Value) Str() string      { return v.strV }
func (v Value) List() []Value    { return v.listV }
func (v Value) Fields() map[string]Value { return v.fieldsV }

// AsNumber returns the value widened to float64 regardless of whether it
// was stored as Int or Float; used by arithmetic evaluators.
func (v Value) AsNumber() float64 {
	if v.typ.Kind == scope.KindInt {
		return float64(v.intV)
	}
	return v.floatV
}

// Equal performs value equality used by fluent-update comparisons and
// test-expression evaluation.
func (v Value) Equal(o Value) bool {
	if !v.typ.Equal(o.typ) {
		// Int/Float cross-comparison is permitted under Number widening.
		if v.typ.AssignableTo(scope.Number()) && o.typ.AssignableTo(scope.Number()) {
			return v.AsNumber() == o.AsNumber()
		}
		return false
	}
	switch v.typ.Kind {
	case scope.KindBool:
		return v.boolV == o.boolV
	case scope.KindInt:
		return v.intV == o.intV
	case scope.KindFloat:
		return v.floatV == o.floatV
	case scope.KindSymbol, scope.KindString:
		return v.strV == o.strV
	case scope.KindList:
		if len(v.listV) != len(o.listV) {
			return false
		}
		for i := range v.listV {
			if !v.listV[i].Equal(o.listV[i]) {
				return false
			}
		}
		return true
	case scope.KindCompound:
		if len(v.fieldsV) != len(o.fieldsV) {
			return false
		}
		for k, fv := range v.fieldsV {
			ov, ok := o.fieldsV[k]
			if !ok || !fv.Equal(ov) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// String renders a diagnostic representation, used by to_string(indent).
func (v Value) String() string {
	switch v.typ.Kind {
	case scope.KindBool:
		return strconv.FormatBool(v.boolV)
	case scope.KindInt:
		return strconv.FormatInt(v.intV, 10)
	case scope.KindFloat:
		return strconv.FormatFloat(v.floatV, 'g', -1, 64)
	case scope.KindSymbol:
		return v.strV
	case scope.KindString:
		return strconv.Quote(v.strV)
	case scope.KindList:
		parts := make([]string, len(v.listV))
		for i, e := range v.listV {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case scope.KindCompound:
		keys := make([]string, 0, len(v.fieldsV))
		for k := range v.fieldsV {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("%s: %s", k, v.fieldsV[k].String())
		}
		return v.typ.Name + "{" + strings.Join(parts, ", ") + "}"
	default:
		return "<?>"
	}
}

// Binding maps variable names to their bound Value for the current
// evaluation context. The spec's "empty_binding" is simply an empty
// Binding.
type Binding map[string]Value

func EmptyBinding() Binding { return Binding{} }

// With returns a copy of b with name bound to v, leaving b unmodified.
func (b Binding) With(name string, v Value) Binding {
	n := make(Binding, len(b)+1)
	for k, bv := range b {
		n[k] = bv
	}
	n[name] = v
	return n
}

func (b Binding) Lookup(name string) (Value, bool) {
	v, ok := b[name]
	return v, ok
}
