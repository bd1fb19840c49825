package ast

import (
	"fmt"
	"sort"
	"strings"

	"golog/internal/scope"
)

// Expression is the common interface for every Boolean, Numeric,
// Symbolic, String, Compound and List expression node, plus the
// Statement nodes that are themselves used as expressions in a few
// procedural constructs (the spec's Expression variant list). Evaluate
// delegates to the attached ExpressionEvaluator.
type Expression interface {
	Node
	AttachSemantics(f Factory) error
	Type() scope.Type
	Evaluate(b Binding, h History) (Value, error)
}

func evaluatorOf(e *Element, node Node) (ExpressionEvaluator, error) {
	if e.semantics == nil {
		return nil, errNotAttached(node)
	}
	ev, ok := e.semantics.(ExpressionEvaluator)
	if !ok {
		return nil, errNotAttached(node)
	}
	return ev, nil
}

// Literal is a constant expression carrying a Value directly.
type Literal struct {
	Element
	Value Value
}

func NewLiteral(parent *scope.Scope, v Value) *Literal {
	return &Literal{Element: NewElement(parent, v.Type()), Value: v}
}

func (l *Literal) ToString(indent string) string { return l.Value.String() }

func (l *Literal) AttachSemantics(f Factory) error { return l.Attach(l, f) }

func (l *Literal) Evaluate(b Binding, h History) (Value, error) {
	// A literal's value never depends on the backend; it is returned
	// directly whether or not a Factory attached an evaluator to it.
	return l.Value, nil
}

// VarRef is a use-site of a scope variable.
type VarRef struct {
	Element
	Var *scope.Variable
}

func NewVarRef(parent *scope.Scope, v *scope.Variable) *VarRef {
	return &VarRef{Element: NewElement(parent, v.Type), Var: v}
}

func (r *VarRef) ToString(indent string) string   { return r.Var.Name }
func (r *VarRef) AttachSemantics(f Factory) error { return r.Attach(r, f) }

func (r *VarRef) Evaluate(b Binding, h History) (Value, error) {
	if v, ok := b.Lookup(r.Var.Name); ok {
		return v, nil
	}
	ev, err := evaluatorOf(&r.Element, r)
	if err != nil {
		return Value{}, err
	}
	return ev.Evaluate(b, h)
}

// ListExpr constructs an ordered List<T> value from element expressions.
type ListExpr struct {
	Element
	Elements []Expression
}

func NewListExpr(parent *scope.Scope, elemType scope.Type, elems []Expression) *ListExpr {
	return &ListExpr{Element: NewElement(parent, scope.List(elemType)), Elements: elems}
}

func (l *ListExpr) ToString(indent string) string {
	parts := make([]string, len(l.Elements))
	for i, e := range l.Elements {
		parts[i] = e.ToString(indent)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (l *ListExpr) AttachSemantics(f Factory) error {
	for _, e := range l.Elements {
		if err := e.AttachSemantics(f); err != nil {
			return err
		}
	}
	return l.Attach(l, f)
}

func (l *ListExpr) Evaluate(b Binding, h History) (Value, error) {
	vs := make([]Value, len(l.Elements))
	for i, e := range l.Elements {
		v, err := e.Evaluate(b, h)
		if err != nil {
			return Value{}, err
		}
		vs[i] = v
	}
	return ListValue(*l.Type().Elem, vs), nil
}

// CompoundExpr constructs a named Compound value from field expressions.
type CompoundExpr struct {
	Element
	TypeName string
	Fields   map[string]Expression
}

func NewCompoundExpr(parent *scope.Scope, typeName string, fields map[string]Expression) *CompoundExpr {
	return &CompoundExpr{Element: NewElement(parent, scope.Compound(typeName)), TypeName: typeName, Fields: fields}
}

func (c *CompoundExpr) ToString(indent string) string {
	keys := make([]string, 0, len(c.Fields))
	for k := range c.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %s", k, c.Fields[k].ToString(indent))
	}
	return c.TypeName + "{" + strings.Join(parts, ", ") + "}"
}

func (c *CompoundExpr) AttachSemantics(f Factory) error {
	for _, e := range c.Fields {
		if err := e.AttachSemantics(f); err != nil {
			return err
		}
	}
	return c.Attach(c, f)
}

func (c *CompoundExpr) Evaluate(b Binding, h History) (Value, error) {
	vals := make(map[string]Value, len(c.Fields))
	for k, e := range c.Fields {
		v, err := e.Evaluate(b, h)
		if err != nil {
			return Value{}, err
		}
		vals[k] = v
	}
	return CompoundValue(c.TypeName, vals), nil
}

// UnaryOp is a Boolean or Numeric unary operator (Not, Neg).
type UnaryOpKind int

const (
	OpNot UnaryOpKind = iota
	OpNeg
)

type UnaryOp struct {
	Element
	Op      UnaryOpKind
	Operand Expression
}

func NewUnaryOp(parent *scope.Scope, op UnaryOpKind, operand Expression) *UnaryOp {
	t := operand.Type()
	return &UnaryOp{Element: NewElement(parent, t), Op: op, Operand: operand}
}

func (u *UnaryOp) ToString(indent string) string {
	sym := map[UnaryOpKind]string{OpNot: "!", OpNeg: "-"}[u.Op]
	return sym + u.Operand.ToString(indent)
}

func (u *UnaryOp) AttachSemantics(f Factory) error {
	if err := u.Operand.AttachSemantics(f); err != nil {
		return err
	}
	return u.Attach(u, f)
}

func (u *UnaryOp) Evaluate(b Binding, h History) (Value, error) {
	v, err := u.Operand.Evaluate(b, h)
	if err != nil {
		return Value{}, err
	}
	switch u.Op {
	case OpNot:
		return BoolValue(!v.Bool()), nil
	case OpNeg:
		if v.Type().Kind == scope.KindInt {
			return IntValue(-v.Int()), nil
		}
		return FloatValue(-v.AsNumber()), nil
	default:
		return Value{}, fmt.Errorf("unknown unary op %d", u.Op)
	}
}

// BinaryOpKind enumerates logical, comparison and arithmetic operators.
type BinaryOpKind int

const (
	OpAnd BinaryOpKind = iota
	OpOr
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpEq
	OpNeq
	OpLt
	OpLe
	OpGt
	OpGe
)

var binaryOpSym = map[BinaryOpKind]string{
	OpAnd: "&&", OpOr: "||", OpAdd: "+", OpSub: "-", OpMul: "*", OpDiv: "/",
	OpEq: "==", OpNeq: "!=", OpLt: "<", OpLe: "<=", OpGt: ">", OpGe: ">=",
}

type BinaryOp struct {
	Element
	Op          BinaryOpKind
	Left, Right Expression
}

func resultType(op BinaryOpKind, left scope.Type) scope.Type {
	switch op {
	case OpAnd, OpOr, OpEq, OpNeq, OpLt, OpLe, OpGt, OpGe:
		return scope.Bool()
	default:
		return left
	}
}

func NewBinaryOp(parent *scope.Scope, op BinaryOpKind, left, right Expression) *BinaryOp {
	return &BinaryOp{Element: NewElement(parent, resultType(op, left.Type())), Op: op, Left: left, Right: right}
}

func (b *BinaryOp) ToString(indent string) string {
	return fmt.Sprintf("(%s %s %s)", b.Left.ToString(indent), binaryOpSym[b.Op], b.Right.ToString(indent))
}

func (b *BinaryOp) AttachSemantics(f Factory) error {
	if err := b.Left.AttachSemantics(f); err != nil {
		return err
	}
	if err := b.Right.AttachSemantics(f); err != nil {
		return err
	}
	return b.Attach(b, f)
}

func (bo *BinaryOp) Evaluate(b Binding, h History) (Value, error) {
	lv, err := bo.Left.Evaluate(b, h)
	if err != nil {
		return Value{}, err
	}
	switch bo.Op {
	case OpAnd:
		if !lv.Bool() {
			return BoolValue(false), nil
		}
		rv, err := bo.Right.Evaluate(b, h)
		if err != nil {
			return Value{}, err
		}
		return BoolValue(rv.Bool()), nil
	case OpOr:
		if lv.Bool() {
			return BoolValue(true), nil
		}
		rv, err := bo.Right.Evaluate(b, h)
		if err != nil {
			return Value{}, err
		}
		return BoolValue(rv.Bool()), nil
	}
	rv, err := bo.Right.Evaluate(b, h)
	if err != nil {
		return Value{}, err
	}
	switch bo.Op {
	case OpEq:
		return BoolValue(lv.Equal(rv)), nil
	case OpNeq:
		return BoolValue(!lv.Equal(rv)), nil
	case OpLt:
		return BoolValue(lv.AsNumber() < rv.AsNumber()), nil
	case OpLe:
		return BoolValue(lv.AsNumber() <= rv.AsNumber()), nil
	case OpGt:
		return BoolValue(lv.AsNumber() > rv.AsNumber()), nil
	case OpGe:
		return BoolValue(lv.AsNumber() >= rv.AsNumber()), nil
	case OpAdd, OpSub, OpMul, OpDiv:
		return arith(bo.Op, lv, rv)
	default:
		return Value{}, fmt.Errorf("unknown binary op %d", bo.Op)
	}
}

func arith(op BinaryOpKind, l, r Value) (Value, error) {
	useFloat := l.Type().Kind == scope.KindFloat || r.Type().Kind == scope.KindFloat
	if useFloat {
		a, b := l.AsNumber(), r.AsNumber()
		switch op {
		case OpAdd:
			return FloatValue(a + b), nil
		case OpSub:
			return FloatValue(a - b), nil
		case OpMul:
			return FloatValue(a * b), nil
		case OpDiv:
			if b == 0 {
				return Value{}, fmt.Errorf("division by zero")
			}
			return FloatValue(a / b), nil
		}
	}
	a, b := l.Int(), r.Int()
	switch op {
	case OpAdd:
		return IntValue(a + b), nil
	case OpSub:
		return IntValue(a - b), nil
	case OpMul:
		return IntValue(a * b), nil
	case OpDiv:
		if b == 0 {
			return Value{}, fmt.Errorf("division by zero")
		}
		return IntValue(a / b), nil
	}
	return Value{}, fmt.Errorf("unreachable arith op")
}

// GlobalExpr is a Reference<Fluent|Function>: a use-site of a fluent or
// function global, carrying actual-argument expressions matching the
// global's arity and parameter types.
type GlobalExpr struct {
	Element
	Decl *scope.GlobalDecl
	Args []Expression
}

func NewGlobalExpr(parent *scope.Scope, decl *scope.GlobalDecl, args []Expression) *GlobalExpr {
	return &GlobalExpr{Element: NewElement(parent, decl.ReturnType), Decl: decl, Args: args}
}

func (g *GlobalExpr) ToString(indent string) string {
	parts := make([]string, len(g.Args))
	for i, a := range g.Args {
		parts[i] = a.ToString(indent)
	}
	return g.Decl.Name + "(" + strings.Join(parts, ", ") + ")"
}

func (g *GlobalExpr) AttachSemantics(f Factory) error {
	for _, a := range g.Args {
		if err := a.AttachSemantics(f); err != nil {
			return err
		}
	}
	return g.Attach(g, f)
}

func (g *GlobalExpr) Evaluate(b Binding, h History) (Value, error) {
	ev, err := evaluatorOf(&g.Element, g)
	if err != nil {
		return Value{}, err
	}
	return ev.Evaluate(b, h)
}

// Ground evaluates every argument expression to a constant Value,
// producing the (action, constant-arg-tuple) form used by Grounding.
func Ground(args []Expression, b Binding, h History) ([]Value, error) {
	out := make([]Value, len(args))
	for i, a := range args {
		v, err := a.Evaluate(b, h)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
