package luacode

import (
	"regexp"
	"sort"
	"strings"
)

// declaration records where a global function is declared in the source and
// how many parameters it takes. The interpreter exposes neither definition
// order nor parameter counts for its globals, so both are recovered from the
// source text. This is a heuristic: functions bound through constructs the
// scanner does not recognize still load, they just lose position and arity.
type declaration struct {
	pos   int
	arity int
}

var (
	funcStatementRe  = regexp.MustCompile(`(?m)^[ \t]*function[ \t]+([A-Za-z_][A-Za-z0-9_]*)[ \t]*\(([^)]*)\)`)
	funcAssignmentRe = regexp.MustCompile(`(?m)^[ \t]*([A-Za-z_][A-Za-z0-9_]*)[ \t]*=[ \t]*function[ \t]*\(([^)]*)\)`)
)

// scanDeclarations finds global function declarations of the forms
// "function name(a, b)" and "name = function(a, b)". Local functions never
// reach the globals table, so they are intentionally not matched.
func scanDeclarations(source string) map[string]declaration {
	decls := make(map[string]declaration)
	for _, re := range []*regexp.Regexp{funcStatementRe, funcAssignmentRe} {
		for _, match := range re.FindAllStringSubmatchIndex(source, -1) {
			name := source[match[2]:match[3]]
			params := source[match[4]:match[5]]
			if _, seen := decls[name]; seen {
				continue
			}
			decls[name] = declaration{pos: match[0], arity: countParams(params)}
		}
	}
	return decls
}

func countParams(params string) int {
	params = strings.TrimSpace(params)
	if params == "" {
		return 0
	}
	return strings.Count(params, ",") + 1
}

// orderFunctions arranges the defined globals by declaration position, with a
// name-sorted tail for globals the scanner could not locate.
func orderFunctions(defined map[string]bool, decls map[string]declaration) []Function {
	var located, unlocated []Function
	positions := make(map[string]int)
	for name := range defined {
		if decl, ok := decls[name]; ok {
			located = append(located, Function{Name: name, Arity: decl.arity})
			positions[name] = decl.pos
		} else {
			unlocated = append(unlocated, Function{Name: name, Arity: -1})
		}
	}
	sort.Slice(located, func(i, j int) bool {
		return positions[located[i].Name] < positions[located[j].Name]
	})
	sort.Slice(unlocated, func(i, j int) bool {
		return unlocated[i].Name < unlocated[j].Name
	})
	return append(located, unlocated...)
}
