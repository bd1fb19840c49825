package scope

import "fmt"

// Kind enumerates the base members of the expression type lattice.
type Kind int

const (
	KindBool Kind = iota
	KindInt
	KindFloat
	KindNumber // supertype of Int and Float
	KindSymbol
	KindString
	KindList
	KindCompound
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindNumber:
		return "number"
	case KindSymbol:
		return "symbol"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindCompound:
		return "compound"
	default:
		return "unknown"
	}
}

// Type is a concrete member of the expression type lattice: one of Bool,
// Number (Int/Float), Symbol, String, List<T>, or a named Compound type.
type Type struct {
	Kind Kind
	Elem *Type  // set iff Kind == KindList
	Name string // set iff Kind == KindCompound
}

func Bool() Type   { return Type{Kind: KindBool} }
func Int() Type    { return Type{Kind: KindInt} }
func Float() Type  { return Type{Kind: KindFloat} }
func Number() Type { return Type{Kind: KindNumber} }
func Symbol() Type { return Type{Kind: KindSymbol} }
func Str() Type    { return Type{Kind: KindString} }

func List(elem Type) Type {
	e := elem
	return Type{Kind: KindList, Elem: &e}
}

func Compound(name string) Type {
	return Type{Kind: KindCompound, Name: name}
}

func (t Type) String() string {
	switch t.Kind {
	case KindList:
		return fmt.Sprintf("List<%s>", t.Elem.String())
	case KindCompound:
		return "Compound:" + t.Name
	default:
		return t.Kind.String()
	}
}

// Equal reports structural equality (not subtyping).
func (t Type) Equal(o Type) bool {
	if t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case KindList:
		if t.Elem == nil || o.Elem == nil {
			return t.Elem == o.Elem
		}
		return t.Elem.Equal(*o.Elem)
	case KindCompound:
		return t.Name == o.Name
	default:
		return true
	}
}

// AssignableTo reports whether a value of type t can be used where a
// value of type `to` is expected — i.e. t is a subtype of (or equal to)
// to. Number widening (Int/Float -> Number), applied covariantly through
// List element types, is the lattice's only non-trivial subtype
// relation; everything else requires exact match.
func (t Type) AssignableTo(to Type) bool {
	if t.Equal(to) {
		return true
	}
	if to.Kind == KindNumber && (t.Kind == KindInt || t.Kind == KindFloat || t.Kind == KindNumber) {
		return true
	}
	if t.Kind == KindList && to.Kind == KindList && t.Elem != nil && to.Elem != nil {
		return t.Elem.AssignableTo(*to.Elem)
	}
	return false
}

// Widens reports whether redeclaring a global whose existing parameter
// type is `old` with a new parameter type `new_` is a permitted widening
// (old assignable to new_) as opposed to a narrowing (rejected).
func Widens(old, new_ Type) bool {
	return old.AssignableTo(new_)
}
