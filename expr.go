package tabreport

import (
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// rowExprCache caches compiled filter expressions. Expressions come from
// configuration and repeat across rows and sheets, so compilation happens
// once per distinct expression.
var rowExprCache sync.Map // expression string → *vm.Program

// The row under evaluation is exposed to expressions as the map variable
// "r", so column names containing spaces stay addressable:
//
//	r["Program"] != "All" && r["Submitted Applicants"] != nil
const rowVarName = "r"

// compileRowExpr compiles a boolean row filter expression.
func compileRowExpr(expression string) (*vm.Program, error) {
	if cached, ok := rowExprCache.Load(expression); ok {
		return cached.(*vm.Program), nil
	}
	program, err := expr.Compile(expression, expr.AllowUndefinedVariables())
	if err != nil {
		return nil, fmt.Errorf("compile row expression %q: %w", expression, err)
	}
	rowExprCache.Store(expression, program)
	return program, nil
}

// evalRowExpr evaluates a compiled filter expression against one row.
// A nil result is treated as false.
func evalRowExpr(program *vm.Program, expression string, row Row) (bool, error) {
	result, err := expr.Run(program, map[string]any{rowVarName: map[string]any(row)})
	if err != nil {
		return false, fmt.Errorf("evaluate row expression %q: %w", expression, err)
	}
	if result == nil {
		return false, nil
	}
	b, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("row expression %q evaluated to %T, expected bool", expression, result)
	}
	return b, nil
}
