package luacode

import "testing"

func TestScanDeclarationsForms(t *testing.T) {
	source := `function alpha(a, b, c)
end

beta = function()
end

local function gamma(x)
end

local delta = function(y)
end
`
	decls := scanDeclarations(source)
	alpha, ok := decls["alpha"]
	if !ok || alpha.arity != 3 {
		t.Fatalf("alpha = %+v, %v", alpha, ok)
	}
	beta, ok := decls["beta"]
	if !ok || beta.arity != 0 {
		t.Fatalf("beta = %+v, %v", beta, ok)
	}
	if _, ok := decls["gamma"]; ok {
		t.Fatal("local function gamma should not be scanned")
	}
	if _, ok := decls["delta"]; ok {
		t.Fatal("local assignment delta should not be scanned")
	}
	if alpha.pos >= beta.pos {
		t.Fatalf("positions out of order: alpha %d, beta %d", alpha.pos, beta.pos)
	}
}

func TestOrderFunctionsUnlocatedTail(t *testing.T) {
	defined := map[string]bool{"zeta": true, "alpha": true, "scanned": true}
	decls := map[string]declaration{"scanned": {pos: 10, arity: 1}}

	fns := orderFunctions(defined, decls)
	if len(fns) != 3 {
		t.Fatalf("functions = %v", fns)
	}
	if fns[0].Name != "scanned" || fns[0].Arity != 1 {
		t.Fatalf("located function first, got %v", fns)
	}
	// Unlocated functions sort by name so repeated loads agree.
	if fns[1].Name != "alpha" || fns[2].Name != "zeta" {
		t.Fatalf("unlocated tail = %v, %v", fns[1], fns[2])
	}
	if fns[1].Arity != -1 {
		t.Fatalf("unlocated arity = %d, want -1", fns[1].Arity)
	}
}
