package scope

import "testing"

func TestDeclareAndLookupVar(t *testing.T) {
	global := NewGlobalScope()
	child := global.NewChild()

	if _, err := child.Declare("x", Int()); err != nil {
		t.Fatalf("Declare(x) error = %v", err)
	}
	v, ok := child.LookupVar("x")
	if !ok || v.Type.Kind != KindInt {
		t.Fatalf("LookupVar(x) = %v, %v; want an Int variable", v, ok)
	}
}

func TestDeclareDuplicateInSameScopeFails(t *testing.T) {
	s := NewGlobalScope().NewChild()
	if _, err := s.Declare("x", Bool()); err != nil {
		t.Fatalf("first Declare(x) error = %v", err)
	}
	if _, err := s.Declare("x", Bool()); err == nil {
		t.Fatal("expected redeclaring x in the same scope to fail")
	}
}

func TestLookupVarWalksParentChain(t *testing.T) {
	global := NewGlobalScope()
	outer := global.NewChild()
	inner := outer.NewChild()

	if _, err := outer.Declare("y", Symbol()); err != nil {
		t.Fatalf("Declare(y) error = %v", err)
	}
	v, ok := inner.LookupVar("y")
	if !ok || v.Type.Kind != KindSymbol {
		t.Fatalf("LookupVar(y) from inner scope = %v, %v; want a Symbol variable", v, ok)
	}
	if _, ok := global.LookupVar("y"); ok {
		t.Fatal("y declared in a child scope should not be visible from its parent")
	}
}

func TestLookupVarUnknownNameFails(t *testing.T) {
	s := NewGlobalScope().NewChild()
	if _, ok := s.LookupVar("nope"); ok {
		t.Fatal("expected LookupVar of an undeclared name to fail")
	}
}

func TestChildScopesShareRegistry(t *testing.T) {
	global := NewGlobalScope()
	a := global.NewChild()
	b := global.NewChild()

	decl := &GlobalDecl{Kind: GlobalFluent, Name: "lit", ReturnType: Bool(), HasReturn: true}
	if err := a.DeclareGlobal(decl); err != nil {
		t.Fatalf("DeclareGlobal() error = %v", err)
	}
	if _, ok := b.LookupGlobal("lit", 0); !ok {
		t.Fatal("expected a sibling child scope to see a global declared via another child")
	}
}

func TestRegistryDeclareGlobalWideningPermitted(t *testing.T) {
	r := NewRegistry()
	first := &GlobalDecl{Kind: GlobalAction, Name: "move", ParamTypes: []Type{Int()}}
	if err := r.DeclareGlobal(first); err != nil {
		t.Fatalf("first DeclareGlobal() error = %v", err)
	}
	widened := &GlobalDecl{Kind: GlobalAction, Name: "move", ParamTypes: []Type{Number()}}
	if err := r.DeclareGlobal(widened); err != nil {
		t.Fatalf("widening redeclaration should be permitted, got error = %v", err)
	}
}

func TestRegistryDeclareGlobalNarrowingRejected(t *testing.T) {
	r := NewRegistry()
	first := &GlobalDecl{Kind: GlobalAction, Name: "move", ParamTypes: []Type{Number()}}
	if err := r.DeclareGlobal(first); err != nil {
		t.Fatalf("first DeclareGlobal() error = %v", err)
	}
	narrowed := &GlobalDecl{Kind: GlobalAction, Name: "move", ParamTypes: []Type{Int()}}
	if err := r.DeclareGlobal(narrowed); err == nil {
		t.Fatal("expected narrowing redeclaration to fail")
	}
}

func TestRegistryDeclareGlobalKindChangeRejected(t *testing.T) {
	r := NewRegistry()
	if err := r.DeclareGlobal(&GlobalDecl{Kind: GlobalAction, Name: "x"}); err != nil {
		t.Fatalf("first DeclareGlobal() error = %v", err)
	}
	err := r.DeclareGlobal(&GlobalDecl{Kind: GlobalFluent, Name: "x", ReturnType: Bool(), HasReturn: true})
	if err == nil {
		t.Fatal("expected redeclaring x as a different Kind to fail")
	}
}

func TestDefineGlobalReportsRedefinition(t *testing.T) {
	r := NewRegistry()
	decl := &GlobalDecl{Kind: GlobalAction, Name: "x"}
	redefined, err := r.DefineGlobal(decl)
	if err != nil {
		t.Fatalf("first DefineGlobal() error = %v", err)
	}
	if redefined {
		t.Fatal("the first DefineGlobal() should not report redefined=true")
	}
	redefined, err = r.DefineGlobal(decl)
	if err != nil {
		t.Fatalf("second DefineGlobal() error = %v", err)
	}
	if !redefined {
		t.Fatal("the second DefineGlobal() of an identical signature should report redefined=true")
	}
}

func TestRegisterDomain(t *testing.T) {
	r := NewRegistry()
	r.RegisterDomain("colors", []string{"red", "green", "blue"})
	got, ok := r.Domain("colors")
	if !ok || len(got) != 3 || got[1] != "green" {
		t.Fatalf("Domain(colors) = %v, %v; want [red green blue], true", got, ok)
	}
	if _, ok := r.Domain("missing"); ok {
		t.Fatal("expected an unregistered domain to be absent")
	}
}

func TestRegisterTypeConsistentRedefinitionIsNoop(t *testing.T) {
	r := NewRegistry()
	fields := map[string]Type{"x": Int(), "y": Int()}
	if err := r.RegisterType("point", fields); err != nil {
		t.Fatalf("first RegisterType() error = %v", err)
	}
	if err := r.RegisterType("point", map[string]Type{"x": Int(), "y": Int()}); err != nil {
		t.Fatalf("identical redefinition should be permitted, got error = %v", err)
	}
	got, ok := r.TypeFields("point")
	if !ok || len(got) != 2 {
		t.Fatalf("TypeFields(point) = %v, %v; want 2 fields, true", got, ok)
	}
}

func TestRegisterTypeIncompatibleRedefinitionFails(t *testing.T) {
	r := NewRegistry()
	if err := r.RegisterType("point", map[string]Type{"x": Int()}); err != nil {
		t.Fatalf("first RegisterType() error = %v", err)
	}
	if err := r.RegisterType("point", map[string]Type{"x": Int(), "y": Int()}); err == nil {
		t.Fatal("expected an incompatible redefinition of point to fail")
	}
}

func TestTypeAssignableToNumberWidening(t *testing.T) {
	if !Int().AssignableTo(Number()) {
		t.Fatal("Int should be assignable to Number")
	}
	if !Float().AssignableTo(Number()) {
		t.Fatal("Float should be assignable to Number")
	}
	if Number().AssignableTo(Int()) {
		t.Fatal("Number should not be assignable to the narrower Int")
	}
	if Bool().AssignableTo(Number()) {
		t.Fatal("Bool should not be assignable to Number")
	}
}

func TestTypeAssignableToListCovariance(t *testing.T) {
	if !List(Int()).AssignableTo(List(Number())) {
		t.Fatal("List<Int> should be assignable to List<Number>")
	}
	if List(Int()).AssignableTo(List(Symbol())) {
		t.Fatal("List<Int> should not be assignable to List<Symbol>")
	}
}

func TestTypeEqualCompoundByName(t *testing.T) {
	if !Compound("point").Equal(Compound("point")) {
		t.Fatal("Compound types with the same name should be Equal")
	}
	if Compound("point").Equal(Compound("vector")) {
		t.Fatal("Compound types with different names should not be Equal")
	}
}
