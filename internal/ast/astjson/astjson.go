// Package astjson is a JSON AST loader used only by cmd/golog to
// exercise the engine in the absence of a real surface-syntax parser
// (explicitly out of scope per the parser boundary) — a test/CLI
// stand-in, not a parser implementation. It decodes a small tagged-union
// JSON document into the internal/ast node graph, declaring globals and
// domains on a fresh scope.Scope as it goes.
package astjson

import (
	"encoding/json"
	"fmt"

	"golog/internal/ast"
	"golog/internal/golerr"
	"golog/internal/scope"
)

// Document is the top-level JSON shape: domains, type declarations,
// actions, exogenous actions, fluents, procedures and the main body.
type Document struct {
	Domains    map[string][]string  `json:"domains"`
	Types      []typeDecl           `json:"types"`
	Actions    []actionDecl         `json:"actions"`
	ExogActions []exogDecl          `json:"exog_actions"`
	Fluents    []fluentDecl         `json:"fluents"`
	Procedures []procedureDecl      `json:"procedures"`
	Main       json.RawMessage      `json:"main"`
}

type typeDecl struct {
	Name   string            `json:"name"`
	Fields map[string]string `json:"fields"`
}

type paramDecl struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type effectDecl struct {
	Hook   string          `json:"hook"`
	Fluent globalRefDecl   `json:"fluent"`
	Guard  json.RawMessage `json:"guard"`
	Update json.RawMessage `json:"update"`
}

type globalRefDecl struct {
	Name string            `json:"name"`
	Args []json.RawMessage `json:"args"`
}

type actionDecl struct {
	Name          string          `json:"name"`
	Params        []paramDecl     `json:"params"`
	Precondition  json.RawMessage `json:"precondition"`
	Effects       []effectDecl    `json:"effects"`
	SensingFluent *globalRefDecl  `json:"sensing_fluent"`
}

type exogDecl struct {
	Name    string       `json:"name"`
	Params  []paramDecl  `json:"params"`
	Effects []effectDecl `json:"effects"`
}

type initialValueDecl struct {
	Args  []json.RawMessage `json:"args"`
	Value json.RawMessage   `json:"value"`
}

type fluentDecl struct {
	Name          string             `json:"name"`
	Params        []paramDecl        `json:"params"`
	ValueType     string             `json:"value_type"`
	InitialValues []initialValueDecl `json:"initial_values"`
}

type procedureDecl struct {
	Name   string          `json:"name"`
	Params []paramDecl     `json:"params"`
	Body   json.RawMessage `json:"body"`
}

// node is the tagged-union envelope shared by statement and expression
// JSON: Kind selects which other fields are meaningful.
type node struct {
	Kind string `json:"kind"`

	// Literal
	ValueType string          `json:"value_type"`
	Value     json.RawMessage `json:"value"`

	// VarRef
	Var string `json:"var"`

	// UnaryOp / BinaryOp
	Op       string          `json:"op"`
	Operand  json.RawMessage `json:"operand"`
	Left     json.RawMessage `json:"left"`
	Right    json.RawMessage `json:"right"`

	// ListExpr
	ElemType string            `json:"elem_type"`
	Elements []json.RawMessage `json:"elements"`

	// CompoundExpr
	TypeName string                     `json:"type_name"`
	Fields   map[string]json.RawMessage `json:"fields"`

	// GlobalExpr / ActionInvoke
	Name string            `json:"name"`
	Args []json.RawMessage `json:"args"`
	Hook string            `json:"hook"`

	// Sequence
	First json.RawMessage `json:"first"`
	Rest  json.RawMessage `json:"rest"`

	// Test / Conditional / While
	Condition json.RawMessage `json:"condition"`
	Then      json.RawMessage `json:"then"`
	Else      json.RawMessage `json:"else"`
	Body      json.RawMessage `json:"body"`

	// Assign
	Target json.RawMessage `json:"target"`

	// Choose
	Branches []json.RawMessage `json:"branches"`

	// Pick
	Domain string `json:"domain"`

	// ProcCall handled by Name/Args above.
}

// loader carries the scope chain and registry state accumulated while
// walking a Document.
type loader struct {
	global *scope.Scope
}

// Load parses data as a Document and builds a fully-scoped *ast.Program,
// ready for (*ast.Program).AttachAll.
func Load(data []byte) (*ast.Program, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("astjson: decoding document: %w", err)
	}

	global := scope.NewGlobalScope()
	l := &loader{global: global}

	for name, constants := range doc.Domains {
		global.RegisterDomain(name, constants)
	}
	for _, t := range doc.Types {
		fields := make(map[string]scope.Type, len(t.Fields))
		for fname, ftype := range t.Fields {
			ty, err := l.parseType(ftype)
			if err != nil {
				return nil, fmt.Errorf("astjson: type %s field %s: %w", t.Name, fname, err)
			}
			fields[fname] = ty
		}
		if err := global.RegisterType(t.Name, fields); err != nil {
			return nil, fmt.Errorf("astjson: registering type %s: %w", t.Name, err)
		}
	}

	prog := ast.NewProgram(global)

	// Globals may reference each other out of declaration order (an
	// action's effect can update a fluent declared later in the
	// document), so every global's (name, arity, types) signature is
	// registered up front, before any body is built.
	if err := l.predeclare(doc); err != nil {
		return nil, err
	}

	for _, a := range doc.Actions {
		act, err := l.buildAction(global, a)
		if err != nil {
			return nil, fmt.Errorf("astjson: action %s: %w", a.Name, err)
		}
		prog.Actions = append(prog.Actions, act)
	}
	for _, e := range doc.ExogActions {
		ea, err := l.buildExogAction(global, e)
		if err != nil {
			return nil, fmt.Errorf("astjson: exog_action %s: %w", e.Name, err)
		}
		prog.Exogs = append(prog.Exogs, ea)
	}
	for _, fl := range doc.Fluents {
		f, err := l.buildFluent(global, fl)
		if err != nil {
			return nil, fmt.Errorf("astjson: fluent %s: %w", fl.Name, err)
		}
		prog.Fluents = append(prog.Fluents, f)
	}
	for _, p := range doc.Procedures {
		proc, err := l.buildProcedure(global, p)
		if err != nil {
			return nil, fmt.Errorf("astjson: procedure %s: %w", p.Name, err)
		}
		prog.Procedures[proc.Name()] = proc
	}

	if len(doc.Main) == 0 {
		return nil, golerr.NewUserError(golerr.TypeError, "main", "astjson: document has no main body")
	}
	main, err := l.buildStatement(global, doc.Main)
	if err != nil {
		return nil, fmt.Errorf("astjson: main: %w", err)
	}
	prog.Main = main

	return prog, nil
}

func (l *loader) parseType(name string) (scope.Type, error) {
	switch name {
	case "bool":
		return scope.Bool(), nil
	case "int":
		return scope.Int(), nil
	case "float":
		return scope.Float(), nil
	case "number":
		return scope.Number(), nil
	case "symbol":
		return scope.Symbol(), nil
	case "string":
		return scope.Str(), nil
	default:
		if _, ok := l.global.Registry().TypeFields(name); ok {
			return scope.Compound(name), nil
		}
		return scope.Type{}, fmt.Errorf("unknown type %q", name)
	}
}

func (l *loader) buildParams(s *scope.Scope, decls []paramDecl) ([]*scope.Variable, error) {
	vars := make([]*scope.Variable, len(decls))
	for i, p := range decls {
		ty, err := l.parseType(p.Type)
		if err != nil {
			return nil, fmt.Errorf("param %s: %w", p.Name, err)
		}
		v, err := s.Declare(p.Name, ty)
		if err != nil {
			return nil, err
		}
		vars[i] = v
	}
	return vars, nil
}

// predeclare registers every action/exog-action/fluent's (name, arity,
// param types) signature against a throwaway scope, so forward
// references resolve regardless of declaration order in the document.
func (l *loader) predeclare(doc Document) error {
	for _, a := range doc.Actions {
		scratch := l.global.NewChild()
		params, err := l.buildParams(scratch, a.Params)
		if err != nil {
			return fmt.Errorf("astjson: predeclaring action %s: %w", a.Name, err)
		}
		if err := l.declareGlobal(scope.GlobalAction, a.Name, params, scope.Type{}, false); err != nil {
			return fmt.Errorf("astjson: predeclaring action %s: %w", a.Name, err)
		}
	}
	for _, e := range doc.ExogActions {
		scratch := l.global.NewChild()
		params, err := l.buildParams(scratch, e.Params)
		if err != nil {
			return fmt.Errorf("astjson: predeclaring exog_action %s: %w", e.Name, err)
		}
		if err := l.declareGlobal(scope.GlobalExogAction, e.Name, params, scope.Type{}, false); err != nil {
			return fmt.Errorf("astjson: predeclaring exog_action %s: %w", e.Name, err)
		}
	}
	for _, fl := range doc.Fluents {
		scratch := l.global.NewChild()
		params, err := l.buildParams(scratch, fl.Params)
		if err != nil {
			return fmt.Errorf("astjson: predeclaring fluent %s: %w", fl.Name, err)
		}
		valType, err := l.parseType(fl.ValueType)
		if err != nil {
			return fmt.Errorf("astjson: predeclaring fluent %s: value_type: %w", fl.Name, err)
		}
		if err := l.declareGlobal(scope.GlobalFluent, fl.Name, params, valType, true); err != nil {
			return fmt.Errorf("astjson: predeclaring fluent %s: %w", fl.Name, err)
		}
	}
	return nil
}

func (l *loader) declareGlobal(kind scope.GlobalKind, name string, params []*scope.Variable, ret scope.Type, hasReturn bool) error {
	paramTypes := make([]scope.Type, len(params))
	for i, p := range params {
		paramTypes[i] = p.Type
	}
	_, err := l.global.Registry().DefineGlobal(&scope.GlobalDecl{
		Kind: kind, Name: name, ParamTypes: paramTypes, ReturnType: ret, HasReturn: hasReturn,
	})
	return err
}

func (l *loader) buildAction(parent *scope.Scope, a actionDecl) (*ast.Action, error) {
	own := parent.NewChild()
	params, err := l.buildParams(own, a.Params)
	if err != nil {
		return nil, err
	}
	if err := l.declareGlobal(scope.GlobalAction, a.Name, params, scope.Type{}, false); err != nil {
		return nil, err
	}

	var precond ast.Expression
	if len(a.Precondition) > 0 {
		precond, err = l.buildExpression(own, a.Precondition)
		if err != nil {
			return nil, fmt.Errorf("precondition: %w", err)
		}
	}
	act := ast.NewAction(parent, own, a.Name, params, precond)

	for _, ed := range a.Effects {
		eff, err := l.buildEffect(own, ed)
		if err != nil {
			return nil, err
		}
		act.Effects = append(act.Effects, eff)
	}
	if a.SensingFluent != nil {
		ref, err := l.buildGlobalRef(own, *a.SensingFluent)
		if err != nil {
			return nil, fmt.Errorf("sensing_fluent: %w", err)
		}
		act.SensingFluent = ref
	}
	return act, nil
}

func (l *loader) buildExogAction(parent *scope.Scope, e exogDecl) (*ast.ExogAction, error) {
	own := parent.NewChild()
	params, err := l.buildParams(own, e.Params)
	if err != nil {
		return nil, err
	}
	if err := l.declareGlobal(scope.GlobalExogAction, e.Name, params, scope.Type{}, false); err != nil {
		return nil, err
	}
	ea := ast.NewExogAction(parent, own, e.Name, params)
	for _, ed := range e.Effects {
		eff, err := l.buildEffect(own, ed)
		if err != nil {
			return nil, err
		}
		ea.Effects = append(ea.Effects, eff)
	}
	return ea, nil
}

func (l *loader) buildEffect(s *scope.Scope, ed effectDecl) (*ast.EffectAxiom, error) {
	hook, err := parseHook(ed.Hook)
	if err != nil {
		return nil, err
	}
	fluent, err := l.buildGlobalRef(s, ed.Fluent)
	if err != nil {
		return nil, fmt.Errorf("effect fluent: %w", err)
	}
	var guard ast.Expression
	if len(ed.Guard) > 0 {
		guard, err = l.buildExpression(s, ed.Guard)
		if err != nil {
			return nil, fmt.Errorf("effect guard: %w", err)
		}
	}
	update, err := l.buildExpression(s, ed.Update)
	if err != nil {
		return nil, fmt.Errorf("effect update: %w", err)
	}
	return ast.NewEffectAxiom(s, hook, fluent, guard, update), nil
}

func (l *loader) buildFluent(parent *scope.Scope, fd fluentDecl) (*ast.Fluent, error) {
	own := parent.NewChild()
	params, err := l.buildParams(own, fd.Params)
	if err != nil {
		return nil, err
	}
	valType, err := l.parseType(fd.ValueType)
	if err != nil {
		return nil, fmt.Errorf("value_type: %w", err)
	}
	if err := l.declareGlobal(scope.GlobalFluent, fd.Name, params, valType, true); err != nil {
		return nil, err
	}

	initial := make([]ast.InitialValue, len(fd.InitialValues))
	for i, iv := range fd.InitialValues {
		args := make([]ast.Value, len(iv.Args))
		for j, raw := range iv.Args {
			v, err := decodeLiteralValue(raw)
			if err != nil {
				return nil, fmt.Errorf("initial_values[%d].args[%d]: %w", i, j, err)
			}
			args[j] = v
		}
		v, err := decodeLiteralValue(iv.Value)
		if err != nil {
			return nil, fmt.Errorf("initial_values[%d].value: %w", i, err)
		}
		initial[i] = ast.InitialValue{Args: args, Value: v}
	}
	return ast.NewFluent(parent, own, fd.Name, params, valType, initial), nil
}

func (l *loader) buildProcedure(parent *scope.Scope, p procedureDecl) (*ast.Procedure, error) {
	own := parent.NewChild()
	params, err := l.buildParams(own, p.Params)
	if err != nil {
		return nil, err
	}
	body, err := l.buildStatement(own, p.Body)
	if err != nil {
		return nil, fmt.Errorf("body: %w", err)
	}
	return ast.NewProcedure(parent, own, p.Name, params, body), nil
}

func (l *loader) buildGlobalRef(s *scope.Scope, ref globalRefDecl) (*ast.GlobalExpr, error) {
	args, err := l.buildExpressions(s, ref.Args)
	if err != nil {
		return nil, err
	}
	decl, ok := l.global.Registry().LookupGlobal(ref.Name, len(args))
	if !ok {
		return nil, fmt.Errorf("undeclared global %s/%d", ref.Name, len(args))
	}
	return ast.NewGlobalExpr(s, decl, args), nil
}

func (l *loader) buildExpressions(s *scope.Scope, raws []json.RawMessage) ([]ast.Expression, error) {
	out := make([]ast.Expression, len(raws))
	for i, raw := range raws {
		e, err := l.buildExpression(s, raw)
		if err != nil {
			return nil, fmt.Errorf("args[%d]: %w", i, err)
		}
		out[i] = e
	}
	return out, nil
}

func parseHook(s string) (ast.Hook, error) {
	switch s {
	case "start", "":
		return ast.HookStart, nil
	case "stop":
		return ast.HookStop, nil
	case "fail":
		return ast.HookFail, nil
	case "finish":
		return ast.HookFinish, nil
	case "end":
		return ast.HookEnd, nil
	default:
		return 0, fmt.Errorf("unknown hook %q", s)
	}
}

func decodeLiteralValue(raw json.RawMessage) (ast.Value, error) {
	var n node
	if err := json.Unmarshal(raw, &n); err != nil {
		return ast.Value{}, err
	}
	if n.Kind != "literal" {
		return ast.Value{}, fmt.Errorf("expected a literal value, got kind %q", n.Kind)
	}
	return decodeLiteral(n.ValueType, n.Value)
}

func decodeLiteral(valueType string, raw json.RawMessage) (ast.Value, error) {
	switch valueType {
	case "bool":
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return ast.Value{}, err
		}
		return ast.BoolValue(b), nil
	case "int":
		var i int64
		if err := json.Unmarshal(raw, &i); err != nil {
			return ast.Value{}, err
		}
		return ast.IntValue(i), nil
	case "float":
		var f float64
		if err := json.Unmarshal(raw, &f); err != nil {
			return ast.Value{}, err
		}
		return ast.FloatValue(f), nil
	case "symbol":
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ast.Value{}, err
		}
		return ast.SymbolValue(s), nil
	case "string":
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ast.Value{}, err
		}
		return ast.StringValue(s), nil
	default:
		return ast.Value{}, fmt.Errorf("unsupported literal value_type %q", valueType)
	}
}

// buildExpression decodes raw into an Expression node within scope s.
func (l *loader) buildExpression(s *scope.Scope, raw json.RawMessage) (ast.Expression, error) {
	var n node
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, err
	}
	switch n.Kind {
	case "literal":
		v, err := decodeLiteral(n.ValueType, n.Value)
		if err != nil {
			return nil, err
		}
		return ast.NewLiteral(s, v), nil
	case "var":
		v, ok := s.LookupVar(n.Var)
		if !ok {
			return nil, fmt.Errorf("undeclared variable %s", n.Var)
		}
		return ast.NewVarRef(s, v), nil
	case "list":
		elemType, err := l.parseType(n.ElemType)
		if err != nil {
			return nil, err
		}
		elems, err := l.buildExpressions(s, n.Elements)
		if err != nil {
			return nil, err
		}
		return ast.NewListExpr(s, elemType, elems), nil
	case "compound":
		fields := make(map[string]ast.Expression, len(n.Fields))
		for fname, raw := range n.Fields {
			e, err := l.buildExpression(s, raw)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", fname, err)
			}
			fields[fname] = e
		}
		return ast.NewCompoundExpr(s, n.TypeName, fields), nil
	case "not", "neg":
		operand, err := l.buildExpression(s, n.Operand)
		if err != nil {
			return nil, err
		}
		op := ast.OpNot
		if n.Kind == "neg" {
			op = ast.OpNeg
		}
		return ast.NewUnaryOp(s, op, operand), nil
	case "and", "or", "add", "sub", "mul", "div", "eq", "neq", "lt", "le", "gt", "ge":
		left, err := l.buildExpression(s, n.Left)
		if err != nil {
			return nil, fmt.Errorf("left: %w", err)
		}
		right, err := l.buildExpression(s, n.Right)
		if err != nil {
			return nil, fmt.Errorf("right: %w", err)
		}
		return ast.NewBinaryOp(s, binaryOpKindOf(n.Kind), left, right), nil
	case "global":
		return l.buildGlobalRef(s, globalRefDecl{Name: n.Name, Args: n.Args})
	default:
		return nil, fmt.Errorf("unknown expression kind %q", n.Kind)
	}
}

func binaryOpKindOf(kind string) ast.BinaryOpKind {
	switch kind {
	case "and":
		return ast.OpAnd
	case "or":
		return ast.OpOr
	case "add":
		return ast.OpAdd
	case "sub":
		return ast.OpSub
	case "mul":
		return ast.OpMul
	case "div":
		return ast.OpDiv
	case "eq":
		return ast.OpEq
	case "neq":
		return ast.OpNeq
	case "lt":
		return ast.OpLt
	case "le":
		return ast.OpLe
	case "gt":
		return ast.OpGt
	default:
		return ast.OpGe
	}
}

// buildStatement decodes raw into a Statement node within scope s.
func (l *loader) buildStatement(s *scope.Scope, raw json.RawMessage) (ast.Statement, error) {
	var n node
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, err
	}
	switch n.Kind {
	case "sequence":
		first, err := l.buildStatement(s, n.First)
		if err != nil {
			return nil, fmt.Errorf("first: %w", err)
		}
		rest, err := l.buildStatement(s, n.Rest)
		if err != nil {
			return nil, fmt.Errorf("rest: %w", err)
		}
		return ast.NewSequence(s, first, rest), nil
	case "test":
		cond, err := l.buildExpression(s, n.Condition)
		if err != nil {
			return nil, err
		}
		return ast.NewTest(s, cond), nil
	case "conditional":
		cond, err := l.buildExpression(s, n.Condition)
		if err != nil {
			return nil, err
		}
		then, err := l.buildStatement(s, n.Then)
		if err != nil {
			return nil, fmt.Errorf("then: %w", err)
		}
		els, err := l.buildStatement(s, n.Else)
		if err != nil {
			return nil, fmt.Errorf("else: %w", err)
		}
		return ast.NewConditional(s, cond, then, els), nil
	case "while":
		cond, err := l.buildExpression(s, n.Condition)
		if err != nil {
			return nil, err
		}
		body, err := l.buildStatement(s, n.Body)
		if err != nil {
			return nil, fmt.Errorf("body: %w", err)
		}
		return ast.NewWhile(s, cond, body), nil
	case "assign":
		var target node
		if err := json.Unmarshal(n.Target, &target); err != nil {
			return nil, fmt.Errorf("target: %w", err)
		}
		ref, err := l.buildGlobalRef(s, globalRefDecl{Name: target.Name, Args: target.Args})
		if err != nil {
			return nil, fmt.Errorf("target: %w", err)
		}
		value, err := l.buildExpression(s, n.Value)
		if err != nil {
			return nil, fmt.Errorf("value: %w", err)
		}
		return ast.NewAssign(s, ref, value), nil
	case "choose":
		branches := make([]ast.Statement, len(n.Branches))
		for i, raw := range n.Branches {
			b, err := l.buildStatement(s, raw)
			if err != nil {
				return nil, fmt.Errorf("branches[%d]: %w", i, err)
			}
			branches[i] = b
		}
		return ast.NewChoose(s, branches), nil
	case "pick":
		own := s.NewChild()
		ty, err := l.parseType("symbol")
		if err != nil {
			return nil, err
		}
		v, err := own.Declare(n.Var, ty)
		if err != nil {
			return nil, err
		}
		body, err := l.buildStatement(own, n.Body)
		if err != nil {
			return nil, fmt.Errorf("body: %w", err)
		}
		return ast.NewPick(s, own, v, n.Domain, body), nil
	case "star":
		body, err := l.buildStatement(s, n.Body)
		if err != nil {
			return nil, err
		}
		return ast.NewStar(s, body), nil
	case "proc_call":
		args, err := l.buildExpressions(s, n.Args)
		if err != nil {
			return nil, err
		}
		return ast.NewProcCall(s, n.Name, args), nil
	case "return":
		var value ast.Expression
		if len(n.Value) > 0 {
			var err error
			value, err = l.buildExpression(s, n.Value)
			if err != nil {
				return nil, err
			}
		}
		return ast.NewReturn(s, value), nil
	case "action_invoke":
		args, err := l.buildExpressions(s, n.Args)
		if err != nil {
			return nil, err
		}
		decl, ok := l.global.Registry().LookupGlobal(n.Name, len(args))
		if !ok {
			return nil, fmt.Errorf("undeclared action %s/%d", n.Name, len(args))
		}
		hook, err := parseHook(n.Hook)
		if err != nil {
			return nil, err
		}
		return ast.NewActionInvoke(s, decl, args, hook), nil
	default:
		return nil, fmt.Errorf("unknown statement kind %q", n.Kind)
	}
}
