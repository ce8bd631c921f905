package codegen

import (
	"fmt"
	"strings"

	"github.com/composable-delivery/busbar-sf-utam/pkg/grammar"
	"github.com/composable-delivery/busbar-sf-utam/pkg/names"
	"github.com/composable-delivery/busbar-sf-utam/pkg/semantic"
)

// methodParams lowers the declared method arguments.
func methodParams(m *grammar.Method) []Param {
	out := make([]Param, 0, len(m.Args))

	for _, arg := range m.Args {
		out = append(out, Param{
			Name: names.SnakeCase(arg.Name.Value),
			Type: paramType(arg.Type.Value),
		})
	}

	return out
}

// methodReturnType computes the Rust return type of a compose method.
func methodReturnType(m *grammar.Method) string {
	if m.ReturnType == nil {
		return "()"
	}

	base := returnType(m.ReturnType.Value)
	if m.ReturnAll.Value {
		return "Vec<" + base + ">"
	}

	return base
}

// methodFn lowers a compose method. A single typed "last result" local is
// carried between statements; chain statements consume it.
func (g *generator) methodFn(m *grammar.Method, pub bool) Fn {
	doc := []string{fmt.Sprintf("%s method", m.Name.Value)}

	if m.Description != nil {
		doc = m.Description.Lines()

		if m.Description.Return != nil {
			doc = append(doc, "", "Returns: "+m.Description.Return.Value)
		}
	}

	fn := Fn{
		Doc:    doc,
		Name:   g.nm.Method(m.Name.Value),
		Pub:    pub,
		Async:  true,
		Recv:   "&self",
		Params: methodParams(m),
		Ret:    utamResult(methodReturnType(m)),
	}

	fn.Body = g.composeBody(m)

	return fn
}

// stmtValue tracks the carried result of the most recent statement.
type stmtValue struct {
	// varName is the local binding, empty for void statements.
	varName string
	// element is the grammar element behind the value, when it is one.
	element *grammar.Element
	// isRoot marks the root element as the value's target.
	isRoot bool
}

func (g *generator) composeBody(m *grammar.Method) []Stmt {
	var stmts []Stmt

	last := stmtValue{}
	returnVar := ""

	for i, st := range m.Compose {
		lowered, value := g.composeStmt(st, i, last)
		stmts = append(stmts, lowered...)
		last = value

		if st.ReturnElement.Value && value.varName != "" {
			returnVar = value.varName
		}
	}

	switch {
	case m.ReturnType != nil && last.varName != "":
		stmts = append(stmts, Tail{Expr: "Ok(" + last.varName + ")"})
	case returnVar != "":
		stmts = append(stmts, Tail{Expr: "Ok(" + returnVar + ")"})
	default:
		stmts = append(stmts, Tail{Expr: "Ok(())"})
	}

	return stmts
}

// composeStmt lowers one statement and returns the carried value.
func (g *generator) composeStmt(st *grammar.ComposeStatement, idx int, prev stmtValue) ([]Stmt, stmtValue) {
	switch {
	case st.ApplyExternal != nil:
		return g.externalStmt(st, idx)
	case st.Element != nil && st.Apply == nil:
		return g.getterStmt(st, idx)
	case st.Element != nil:
		return g.applyStmt(st, idx)
	case st.Chain.Value && st.Apply != nil:
		return g.chainStmt(st, idx, prev)
	case st.Apply != nil:
		return g.rootApplyStmt(st, idx)
	default:
		return nil, stmtValue{}
	}
}

// getterStmt locates the element and carries it as the last result.
// Statement arguments feed the accessor's selector parameters.
func (g *generator) getterStmt(st *grammar.ComposeStatement, idx int) ([]Stmt, stmtValue) {
	varName := fmt.Sprintf("result_%d", idx)
	getter := g.nm.Accessor(st.Element.Value)

	stmts := []Stmt{Let{
		Name: varName,
		Expr: fmt.Sprintf("self.%s(%s).await?", getter, lowerArgs(st.Args)),
	}}

	value := stmtValue{varName: varName, element: g.elementByName(st.Element.Value)}

	return g.matcherStmts(st, stmts, value, idx)
}

// applyStmt locates the element and applies the action to it.
func (g *generator) applyStmt(st *grammar.ComposeStatement, idx int) ([]Stmt, stmtValue) {
	targetVar := fmt.Sprintf("target_%d", idx)
	getter := g.nm.Accessor(st.Element.Value)

	stmts := []Stmt{Let{
		Name: targetVar,
		Expr: fmt.Sprintf("self.%s().await?", getter),
	}}

	el := g.elementByName(st.Element.Value)

	var et *grammar.ElementType
	if el != nil {
		et = el.Type
	}

	action, _ := semantic.ResolveAction(et, st.Apply.Value)

	return g.actionCall(st, stmts, targetVar, action, idx)
}

// chainStmt applies the action to the preceding statement's value.
func (g *generator) chainStmt(st *grammar.ComposeStatement, idx int, prev stmtValue) ([]Stmt, stmtValue) {
	if prev.varName == "" {
		return nil, stmtValue{}
	}

	var et *grammar.ElementType
	if prev.element != nil {
		et = prev.element.Type
	}

	action, _ := semantic.ResolveAction(et, st.Apply.Value)

	return g.actionCall(st, nil, prev.varName, action, idx)
}

// rootApplyStmt applies an element-less action to the root element
// (beforeLoad statements).
func (g *generator) rootApplyStmt(st *grammar.ComposeStatement, idx int) ([]Stmt, stmtValue) {
	action, _ := semantic.ResolveRootAction(g.doc.ActionTypes, st.Apply.Value)

	wrapper := wrapperBase
	if tag, ok := semantic.TagProvidingAction(g.doc.ActionTypes, st.Apply.Value); ok && tag != "" {
		wrapper = tagWrapper(tag)
	}

	target := fmt.Sprintf("%s::new(self.root.clone())", wrapper)

	return g.actionCall(st, nil, target, action, idx)
}

// actionCall emits the action invocation, binding the result when the
// action produces a value, then folds in the matcher.
func (g *generator) actionCall(
	st *grammar.ComposeStatement,
	stmts []Stmt,
	target string,
	action semantic.Action,
	idx int,
) ([]Stmt, stmtValue) {
	call := fmt.Sprintf("%s.%s(%s).await?", target, names.SnakeCase(st.Apply.Value), lowerArgs(st.Args))

	value := stmtValue{}

	if action.Result == semantic.TypeVoid && st.Matcher == nil {
		stmts = append(stmts, Semi{Expr: call})
	} else {
		varName := fmt.Sprintf("result_%d", idx)
		stmts = append(stmts, Let{Name: varName, Expr: call})
		value.varName = varName
	}

	return g.matcherStmts(st, stmts, value, idx)
}

// externalStmt calls into an external helper.
func (g *generator) externalStmt(st *grammar.ComposeStatement, idx int) ([]Stmt, stmtValue) {
	ext := st.ApplyExternal
	call := fmt.Sprintf("%s(%s).await?", names.SnakeCase(ext.Method.Value), lowerArgs(ext.Args))

	value := stmtValue{}

	if st.ReturnType != nil || st.Matcher != nil {
		varName := fmt.Sprintf("result_%d", idx)
		value.varName = varName

		return g.matcherStmts(st, []Stmt{Let{Name: varName, Expr: call}}, value, idx)
	}

	return []Stmt{Semi{Expr: call}}, value
}

// matcherStmts rebinds the statement value through the matcher's boolean
// expression when a matcher is present.
func (g *generator) matcherStmts(
	st *grammar.ComposeStatement,
	stmts []Stmt,
	value stmtValue,
	idx int,
) ([]Stmt, stmtValue) {
	if st.Matcher == nil {
		return stmts, value
	}

	operand := value.varName
	if operand == "" {
		operand = "()"
	}

	matchedVar := fmt.Sprintf("matched_%d", idx)
	stmts = append(stmts, Let{Name: matchedVar, Expr: matcherExpr(st.Matcher, operand)})

	return stmts, stmtValue{varName: matchedVar}
}

// matcherExpr lowers a matcher to a pure boolean expression over the
// operand. stringContains uses exact substring semantics.
func matcherExpr(m *grammar.Matcher, operand string) string {
	arg := ""
	if len(m.Args) > 0 {
		arg = lowerArg(m.Args[0])
	}

	switch m.Kind {
	case grammar.MatcherIsTrue:
		return operand
	case grammar.MatcherIsFalse:
		return "!" + operand
	case grammar.MatcherStringEquals:
		return fmt.Sprintf("%s == %s", operand, arg)
	case grammar.MatcherStringContains:
		return fmt.Sprintf("%s.contains(%s)", operand, arg)
	case grammar.MatcherNotNull:
		return operand + ".is_some()"
	case grammar.MatcherUnknown:
		return operand
	default:
		return operand
	}
}

// lowerArgs renders compose arguments in declaration order. Literals are
// inlined; references become the mapped parameter names.
func lowerArgs(args []*grammar.ComposeArg) string {
	parts := make([]string, 0, len(args))

	for _, arg := range args {
		parts = append(parts, lowerArg(arg))
	}

	return strings.Join(parts, ", ")
}

func lowerArg(arg *grammar.ComposeArg) string {
	switch arg.Kind {
	case grammar.ArgLiteralString:
		return strLit(arg.StringVal)
	case grammar.ArgLiteralNumber:
		return numberLit(arg.NumberVal)
	case grammar.ArgLiteralBool:
		if arg.BoolVal {
			return "true"
		}

		return "false"
	case grammar.ArgReference:
		return names.SnakeCase(arg.Name.Value)
	case grammar.ArgSelector:
		return byExpr(arg.Selector)
	case grammar.ArgPredicate:
		return "()"
	default:
		return "()"
	}
}

// beforeLoadFn lowers the pre-load statements into an override point
// invoked from load() after the root is found.
func (g *generator) beforeLoadFn() Fn {
	var stmts []Stmt

	last := stmtValue{}

	for i, st := range g.doc.BeforeLoad {
		lowered, value := g.composeStmt(st, i, last)
		stmts = append(stmts, lowered...)
		last = value
	}

	stmts = append(stmts, Tail{Expr: "Ok(())"})

	return Fn{
		Doc:   []string{"Conditions checked before the page object finishes loading"},
		Name:  "before_load",
		Async: true,
		Recv:  "&self",
		Ret:   utamResult("()"),
		Body:  stmts,
	}
}

// elementByName resolves an element from the symbol table built over the
// document tree.
func (g *generator) elementByName(name string) *grammar.Element {
	return g.symbols[name]
}
