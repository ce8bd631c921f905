package codegen

import (
	"fmt"

	"github.com/composable-delivery/busbar-sf-utam/pkg/grammar"
	"github.com/composable-delivery/busbar-sf-utam/pkg/names"
	"github.com/composable-delivery/busbar-sf-utam/pkg/semantic"
)

// pathStep is one hop of an element's flattened locator path: optionally
// dereference the current scope's shadow root, then find by selector.
type pathStep struct {
	viaShadow bool
	sel       *grammar.Selector
}

// accessorPlan is the compile-time flattening of an element's shadow path:
// the ancestor hops from the document root, then the element's own step.
type accessorPlan struct {
	el        *grammar.Element
	ancestors []pathStep
	own       pathStep
}

// params returns the accessor's parameters: the selector arguments of
// every ancestor hop, then the element's own, in declaration order.
func (p accessorPlan) params() []Param {
	var out []Param

	addSelector := func(sel *grammar.Selector) {
		if sel == nil {
			return
		}

		for _, a := range sel.Args {
			out = append(out, Param{
				Name: names.SnakeCase(a.Name.Value),
				Type: paramType(a.Type.Value),
			})
		}
	}

	for _, step := range p.ancestors {
		addSelector(step.sel)
	}

	addSelector(p.own.sel)

	return out
}

// argNames returns the parameter names for forwarding calls.
func (p accessorPlan) argNames() []string {
	params := p.params()

	out := make([]string, 0, len(params))
	for _, param := range params {
		out = append(out, param.Name)
	}

	return out
}

// collectPlans flattens the element tree into accessor plans in lexical
// order. Every shadow nesting level inserts a shadow-root dereference in
// front of the next find.
func collectPlans(doc *grammar.Document) []accessorPlan {
	var plans []accessorPlan

	var walk func(els []*grammar.Element, prefix []pathStep, viaShadow bool)

	walk = func(els []*grammar.Element, prefix []pathStep, viaShadow bool) {
		for _, el := range els {
			own := pathStep{viaShadow: viaShadow, sel: el.Selector}

			if el.Name.Value != "" {
				plans = append(plans, accessorPlan{
					el:        el,
					ancestors: prefix,
					own:       own,
				})
			}

			childPrefix := make([]pathStep, 0, len(prefix)+1)
			childPrefix = append(childPrefix, prefix...)
			childPrefix = append(childPrefix, own)

			walk(el.Elements, childPrefix, false)

			if el.Shadow != nil {
				walk(el.Shadow.Elements, childPrefix, true)
			}
		}
	}

	walk(doc.Elements, nil, false)

	if doc.Shadow != nil {
		walk(doc.Shadow.Elements, nil, true)
	}

	return plans
}

// returnsAll reports whether the element locates a collection.
func returnsAll(el *grammar.Element) bool {
	if el.List.Value {
		return true
	}

	return el.Selector != nil && el.Selector.ReturnAll.Value
}

// accessorReturnType computes the wrapped Rust type an accessor yields.
func (g *generator) accessorReturnType(el *grammar.Element) string {
	base := g.wrapperType(el)

	switch {
	case returnsAll(el) && el.Filter != nil && el.Filter.FindFirst.Value:
		return base
	case returnsAll(el):
		return "Vec<" + base + ">"
	case el.Nullable.Value:
		return "Option<" + base + ">"
	default:
		return base
	}
}

// wrapperType resolves the smallest capability wrapper satisfying the
// element's type, emitting a nominal union wrapper when a single canonical
// wrapper cannot express the capability set.
func (g *generator) wrapperType(el *grammar.Element) string {
	et := el.Type
	if et == nil {
		return wrapperBase
	}

	switch et.Kind {
	case grammar.KindCustom:
		return componentTypePath(et.Custom.Value)
	case grammar.KindContainer:
		return wrapperContainer
	case grammar.KindFrame:
		return wrapperFrame
	case grammar.KindCapabilities:
		return g.capabilityWrapper(el, et)
	case grammar.KindError:
		return wrapperBase
	default:
		return wrapperBase
	}
}

func componentTypePath(ref string) string {
	parsed, err := names.ParseComponentRef(ref)
	if err != nil {
		return names.PascalCase(ref)
	}

	return "crate::" + names.ComponentModulePath(parsed) + "::" + names.ComponentTypeName(parsed)
}

// capabilityWrapper picks the canonical wrapper for a single capability
// tag, or emits a per-accessor union wrapper for a multi-tag set.
func (g *generator) capabilityWrapper(el *grammar.Element, et *grammar.ElementType) string {
	tags := distinctKnownTags(et.Capabilities)

	switch len(tags) {
	case 0:
		return wrapperBase
	case 1:
		return tagWrapper(tags[0])
	default:
		name := names.PascalCase(el.Name.Value) + "Element"
		g.emitUnionWrapper(name, tags)

		return name
	}
}

// distinctKnownTags filters to recognized capability tags, deduplicated,
// in canonical order.
func distinctKnownTags(tags []grammar.Str) []string {
	present := make(map[string]bool, len(tags))

	for _, tag := range tags {
		present[tag.Value] = true
	}

	var out []string

	for _, tag := range semantic.CanonicalTags() {
		if present[tag] {
			out = append(out, tag)
		}
	}

	return out
}

// emitUnionWrapper appends a nominal wrapper delegating to one underlying
// element handle and re-exporting the union of capability traits.
func (g *generator) emitUnionWrapper(name string, tags []string) {
	if g.emitted[name] {
		return
	}

	g.emitted[name] = true

	g.wrappers = append(g.wrappers,
		Struct{
			Doc:    []string{fmt.Sprintf("Capability wrapper combining %s", joinWords(tags))},
			Name:   name,
			Pub:    true,
			Fields: []Field{{Name: "inner", Type: typeWebElement}},
		},
		Impl{
			Type: name,
			Fns: []Fn{{
				Name:   "new",
				Params: []Param{{Name: "inner", Type: typeWebElement}},
				Ret:    "Self",
				Body:   []Stmt{Tail{Expr: "Self { inner }"}},
			}},
		},
		Impl{
			Trait: "Actionable",
			Type:  name,
			Fns: []Fn{{
				Name: "inner",
				Recv: "&self",
				Ret:  "&" + typeWebElement,
				Body: []Stmt{Tail{Expr: "&self.inner"}},
			}},
		},
	)

	for _, tag := range tags {
		if tag == "actionable" {
			continue
		}

		g.wrappers = append(g.wrappers, Impl{Trait: capabilityTrait(tag), Type: name})
	}
}

func joinWords(words []string) string {
	out := ""

	for i, w := range words {
		if i > 0 {
			out += " and "
		}

		out += w
	}

	return out
}

// accessorFn lowers one accessor plan: walk the flattened shadow path,
// find the element, and wrap it.
func (g *generator) accessorFn(plan accessorPlan) Fn {
	el := plan.el

	doc := []string{fmt.Sprintf("Get the %s element", el.Name.Value)}
	if el.Description != nil {
		doc = []string{el.Description.Value}
	}

	if el.Load.Value && !g.opts.EagerChildLoad {
		doc = append(doc, "", "Marked for loading as part of the page load sequence")
	}

	fn := Fn{
		Doc:    doc,
		Name:   g.nm.Accessor(el.Name.Value),
		Pub:    el.Public.Value,
		Async:  true,
		Recv:   "&self",
		Params: plan.params(),
		Ret:    utamResult(g.accessorReturnType(el)),
	}

	body, scope := g.pathStmts(plan)

	if returnsAll(el) {
		body = append(body, g.findAllStmts(plan, scope)...)
	} else {
		body = append(body, g.findOneStmts(plan, scope)...)
	}

	fn.Body = body

	return fn
}

// pathStmts emits the ancestor hops and returns the scope expression the
// element's own find runs against.
func (g *generator) pathStmts(plan accessorPlan) ([]Stmt, string) {
	var stmts []Stmt

	scope := "self.root"

	for i, step := range plan.ancestors {
		if step.viaShadow {
			shadowVar := fmt.Sprintf("shadow_%d", i)
			stmts = append(stmts, Let{Name: shadowVar, Expr: scope + ".get_shadow_root().await?"})
			scope = shadowVar
		}

		scopeVar := fmt.Sprintf("scope_%d", i)
		stmts = append(stmts, Let{
			Name: scopeVar,
			Expr: fmt.Sprintf("%s.find(%s).await?", scope, byExpr(step.sel)),
		})
		scope = scopeVar
	}

	if plan.own.viaShadow {
		shadowVar := fmt.Sprintf("shadow_%d", len(plan.ancestors))
		stmts = append(stmts, Let{Name: shadowVar, Expr: scope + ".get_shadow_root().await?"})
		scope = shadowVar
	}

	return stmts, scope
}

func (g *generator) findOneStmts(plan accessorPlan, scope string) []Stmt {
	el := plan.el
	by := byExpr(el.Selector)

	var stmts []Stmt

	if el.Nullable.Value {
		stmts = append(stmts, Let{
			Name: "elem",
			Expr: fmt.Sprintf("match %s.find(%s).await { Ok(elem) => elem, Err(_) => return Ok(None) }", scope, by),
		})
		stmts = append(stmts, g.wrapStmts(el, "elem")...)
		stmts = append(stmts, Tail{Expr: "Ok(Some(wrapped))"})

		return stmts
	}

	stmts = append(stmts, Let{
		Name: "elem",
		Expr: fmt.Sprintf("%s.find(%s).await?", scope, by),
	})
	stmts = append(stmts, g.wrapStmts(el, "elem")...)
	stmts = append(stmts, Tail{Expr: "Ok(wrapped)"})

	return stmts
}

func (g *generator) findAllStmts(plan accessorPlan, scope string) []Stmt {
	el := plan.el
	by := byExpr(el.Selector)

	stmts := []Stmt{Let{
		Name: "elems",
		Expr: fmt.Sprintf("%s.find_all(%s).await?", scope, by),
	}}

	if el.Filter != nil {
		return append(stmts, g.filterStmts(el)...)
	}

	stmts = append(stmts, Let{Name: "result", Mut: true, Expr: "Vec::new()"})

	loop := For{Pat: "elem", Iter: "elems"}
	loop.Body = append(loop.Body, g.wrapStmts(el, "elem")...)
	loop.Body = append(loop.Body, Semi{Expr: "result.push(wrapped)"})

	return append(stmts, loop, Tail{Expr: "Ok(result)"})
}

// filterStmts narrows a find_all result through the element's filter,
// short-circuiting on the first match when findFirst is set.
func (g *generator) filterStmts(el *grammar.Element) []Stmt {
	filter := el.Filter
	findFirst := filter.FindFirst.Value

	var stmts []Stmt

	if !findFirst {
		stmts = append(stmts, Let{Name: "result", Mut: true, Expr: "Vec::new()"})
	}

	loop := For{Pat: "elem", Iter: "elems"}
	loop.Body = append(loop.Body, g.wrapStmts(el, "elem")...)
	loop.Body = append(loop.Body, Let{Name: "candidate", Expr: "wrapped"})

	cond := "true"

	if filter.Find != nil && filter.Find.Apply != nil {
		applyArgs := lowerArgs(filter.Find.Args)
		loop.Body = append(loop.Body, Let{
			Name: "value",
			Expr: fmt.Sprintf("candidate.%s(%s).await?", names.SnakeCase(filter.Find.Apply.Value), applyArgs),
		})

		cond = "value"
	}

	if filter.Match != nil {
		operand := "candidate"
		if filter.Find != nil && filter.Find.Apply != nil {
			operand = "value"
		}

		cond = matcherExpr(filter.Match, operand)
	}

	if findFirst {
		loop.Body = append(loop.Body, If{Cond: cond, Then: []Stmt{Tail{Expr: "return Ok(candidate);"}}})
	} else {
		loop.Body = append(loop.Body, If{Cond: cond, Then: []Stmt{Semi{Expr: "result.push(candidate)"}}})
	}

	stmts = append(stmts, loop)

	if findFirst {
		stmts = append(stmts, Tail{Expr: fmt.Sprintf(
			"Err(UtamError::ElementNotFound { name: %s.to_string(), selector: %s.to_string() })",
			strLit(el.Name.Value), strLit(rootSelectorText(el.Selector)))})
	} else {
		stmts = append(stmts, Tail{Expr: "Ok(result)"})
	}

	return stmts
}

// wrapStmts binds "wrapped" to the element value in the smallest wrapper
// satisfying the element's type.
func (g *generator) wrapStmts(el *grammar.Element, elemVar string) []Stmt {
	et := el.Type

	if et != nil && et.Kind == grammar.KindCustom {
		return []Stmt{Let{
			Name: "wrapped",
			Expr: fmt.Sprintf("%s::from_element(self.driver.clone(), %s).await?",
				componentTypePath(et.Custom.Value), elemVar),
		}}
	}

	return []Stmt{Let{
		Name: "wrapped",
		Expr: fmt.Sprintf("%s::new(%s)", g.wrapperType(el), elemVar),
	}}
}

// waitFn polls the element's accessor until it succeeds or times out.
func (g *generator) waitFn(plan accessorPlan) Fn {
	el := plan.el
	getter := g.nm.Accessor(el.Name.Value)

	params := append([]Param{}, plan.params()...)
	params = append(params, Param{Name: "timeout", Type: typeDuration})

	callArgs := ""
	for i, name := range plan.argNames() {
		if i > 0 {
			callArgs += ", "
		}

		callArgs += name
	}

	desc := fmt.Sprintf("%s element to be available", el.Name.Value)

	return Fn{
		Doc:    []string{fmt.Sprintf("Wait for the %s element to be available", el.Name.Value)},
		Name:   g.nm.Wait(el.Name.Value),
		Pub:    el.Public.Value,
		Async:  true,
		Recv:   "&self",
		Params: params,
		Ret:    utamResult("()"),
		Body: []Stmt{
			Let{Name: "config", Expr: "WaitConfig { timeout, ..Default::default() }"},
			Raw{Lines: []string{
				"wait_for(",
				indentUnit + "|| async {",
				indentUnit + indentUnit + fmt.Sprintf("match self.%s(%s).await {", getter, callArgs),
				indentUnit + indentUnit + indentUnit + "Ok(_) => Ok(Some(())),",
				indentUnit + indentUnit + indentUnit + "Err(_) => Ok(None),",
				indentUnit + indentUnit + "}",
				indentUnit + "},",
				indentUnit + "&config,",
				indentUnit + strLit(desc) + ",",
				")",
				".await",
			}},
		},
	}
}
