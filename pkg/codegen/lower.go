package codegen

import (
	"fmt"

	"github.com/composable-delivery/busbar-sf-utam/pkg/grammar"
	"github.com/composable-delivery/busbar-sf-utam/pkg/names"
	"github.com/composable-delivery/busbar-sf-utam/pkg/semantic"
	"github.com/composable-delivery/busbar-sf-utam/pkg/source"
)

// Options tunes generation behavior.
type Options struct {
	// EagerChildLoad makes load() invoke the accessor of every element
	// marked "load": true after beforeLoad runs. When false (the default),
	// the mark only annotates the accessor documentation.
	EagerChildLoad bool
}

// Generate lowers a validated document into Rust source text. The caller
// guarantees the document passed semantic validation; any fault here is an
// internal error.
func Generate(src *source.Source, doc *grammar.Document, nameMap *names.Map, opts Options) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("generator invariant violated: %v", r)
		}
	}()

	g := &generator{
		src:     src,
		doc:     doc,
		nm:      nameMap,
		opts:    opts,
		emitted: make(map[string]bool),
		symbols: semantic.Symbols(doc),
	}

	file := g.file()

	return Print(file), nil
}

type generator struct {
	src  *source.Source
	doc  *grammar.Document
	nm   *names.Map
	opts Options

	// wrappers accumulates nominal union wrappers emitted after the main
	// items, in first-use order.
	wrappers []Item
	emitted  map[string]bool
	symbols  map[string]*grammar.Element
}

func (g *generator) file() *File {
	file := &File{Uses: []string{runtimePrelude}}

	if g.doc.Description != nil {
		file.Header = g.doc.Description.Lines()

		if g.doc.Description.Author != nil {
			file.Header = append(file.Header, "", "Author: "+g.doc.Description.Author.Value)
		}
	}

	if g.doc.IsInterface.Value {
		file.Items = append(file.Items, g.interfaceTrait())

		return file
	}

	file.Items = append(file.Items, g.structItem(), g.pageObjectImpl())

	if g.doc.Root.Value {
		file.Items = append(file.Items, g.rootImpl())
	}

	file.Items = append(file.Items, g.inherentImpl())

	if g.doc.Implements != nil {
		file.Items = append(file.Items, g.implementsImpl())
	}

	file.Items = append(file.Items, g.wrappers...)

	return file
}

func (g *generator) structItem() Struct {
	doc := []string{"Generated page object"}
	if g.doc.Description != nil {
		doc = g.doc.Description.Lines()
	}

	return Struct{
		Doc:  doc,
		Name: g.nm.TypeName,
		Pub:  true,
		Fields: []Field{
			{Name: "root", Type: typeWebElement},
			{Name: "driver", Type: typeWebDriver},
		},
	}
}

func (g *generator) pageObjectImpl() Impl {
	return Impl{
		Trait: traitPageObject,
		Type:  g.nm.TypeName,
		Fns: []Fn{{
			Name: "root",
			Recv: "&self",
			Ret:  "&" + typeWebElement,
			Body: []Stmt{Tail{Expr: "&self.root"}},
		}},
	}
}

// rootImpl emits the RootPageObject implementation: the root selector
// constant, load() and from_element(). beforeLoad runs inside load after
// the root is located.
func (g *generator) rootImpl() Impl {
	im := Impl{
		Trait:      traitRootPageObject,
		Type:       g.nm.TypeName,
		AsyncTrait: true,
	}

	rootBy := "By::Css(Self::ROOT_SELECTOR)"

	kind, kindOK := grammar.SelectorCSS, false
	if g.doc.Selector != nil {
		kind, kindOK = g.doc.Selector.Kind()
	}

	if kindOK && kind == grammar.SelectorCSS && len(g.doc.Selector.Args) == 0 {
		text, _ := g.doc.Selector.Text()
		im.Consts = append(im.Consts, AssocConst{
			Name:  "ROOT_SELECTOR",
			Type:  "&'static str",
			Value: strLit(text.Value),
		})
	} else {
		rootBy = byExpr(g.doc.Selector)

		im.Consts = append(im.Consts, AssocConst{
			Name:  "ROOT_SELECTOR",
			Type:  "&'static str",
			Value: strLit(rootSelectorText(g.doc.Selector)),
		})
	}

	loadBody := []Stmt{
		Let{Name: "root", Expr: fmt.Sprintf("driver.find(%s).await?", rootBy)},
		Let{Name: "page", Expr: "Self::from_element(driver.clone(), root).await?"},
	}

	if len(g.doc.BeforeLoad) > 0 {
		loadBody = append(loadBody, Semi{Expr: "page.before_load().await?"})
	}

	if g.opts.EagerChildLoad {
		for _, plan := range collectPlans(g.doc) {
			if plan.el.Load.Value {
				loadBody = append(loadBody, Semi{
					Expr: fmt.Sprintf("page.%s().await?", g.nm.Accessor(plan.el.Name.Value)),
				})
			}
		}
	}

	loadBody = append(loadBody, Tail{Expr: "Ok(page)"})

	im.Fns = append(im.Fns,
		Fn{
			Name:   "load",
			Async:  true,
			Params: []Param{{Name: "driver", Type: "&" + typeWebDriver}},
			Ret:    utamResult("Self"),
			Body:   loadBody,
		},
		Fn{
			Name:  "from_element",
			Async: true,
			Params: []Param{
				{Name: "driver", Type: typeWebDriver},
				{Name: "element", Type: typeWebElement},
			},
			Ret:  utamResult("Self"),
			Body: []Stmt{Tail{Expr: "Ok(Self { root: element, driver })"}},
		},
	)

	return im
}

func rootSelectorText(sel *grammar.Selector) string {
	if sel == nil {
		return ""
	}

	text, ok := sel.Text()
	if !ok {
		return ""
	}

	return text.Value
}

// inherentImpl collects the page object's own surface: construction helper
// for non-root documents, wait_for_load, the root capability methods,
// element accessors, wait methods, beforeLoad, and (unless the document
// implements an interface) the compose methods.
func (g *generator) inherentImpl() Impl {
	im := Impl{Type: g.nm.TypeName}

	if !g.doc.Root.Value {
		im.Fns = append(im.Fns, Fn{
			Doc:   []string{"Build the page object from an already-located element"},
			Name:  "from_element",
			Pub:   true,
			Async: true,
			Params: []Param{
				{Name: "driver", Type: typeWebDriver},
				{Name: "element", Type: typeWebElement},
			},
			Ret:  utamResult("Self"),
			Body: []Stmt{Tail{Expr: "Ok(Self { root: element, driver })"}},
		})
	}

	if g.doc.Root.Value {
		im.Fns = append(im.Fns, g.waitForLoadFn())
	}

	if g.doc.ExposeRootElement.Value {
		im.Fns = append(im.Fns, Fn{
			Doc:  []string{"Access the underlying root element"},
			Name: "root_element",
			Pub:  true,
			Recv: "&self",
			Ret:  "&" + typeWebElement,
			Body: []Stmt{Tail{Expr: "&self.root"}},
		})
	}

	im.Fns = append(im.Fns, g.rootCapabilityFns()...)

	for _, plan := range collectPlans(g.doc) {
		im.Fns = append(im.Fns, g.accessorFn(plan))

		if plan.el.GenerateWait.Value {
			im.Fns = append(im.Fns, g.waitFn(plan))
		}
	}

	if len(g.doc.BeforeLoad) > 0 {
		im.Fns = append(im.Fns, g.beforeLoadFn())
	}

	if g.doc.Implements == nil {
		for _, m := range g.doc.Methods {
			im.Fns = append(im.Fns, g.methodFn(m, true))
		}
	}

	return im
}

// implementsImpl emits the document's compose methods inside an impl block
// for the interface named by "implements". Cross-file agreement is left to
// the target-language typechecker.
func (g *generator) implementsImpl() Impl {
	im := Impl{
		Trait:      implementsTraitPath(g.doc.Implements.Value),
		Type:       g.nm.TypeName,
		AsyncTrait: true,
	}

	for _, m := range g.doc.Methods {
		im.Fns = append(im.Fns, g.methodFn(m, false))
	}

	return im
}

func implementsTraitPath(ref string) string {
	parsed, err := names.ParseComponentRef(ref)
	if err != nil {
		return names.PascalCase(ref)
	}

	return "crate::" + names.ComponentModulePath(parsed) + "::" + names.ComponentTypeName(parsed)
}

// interfaceTrait emits an interface document as a trait of signatures:
// accessors for its public elements plus its declared methods.
func (g *generator) interfaceTrait() Trait {
	doc := []string{"Generated page-object interface"}
	if g.doc.Description != nil {
		doc = g.doc.Description.Lines()
	}

	t := Trait{
		Doc:        doc,
		Name:       g.nm.TypeName,
		Pub:        true,
		AsyncTrait: true,
	}

	for _, plan := range collectPlans(g.doc) {
		if !plan.el.Public.Value {
			continue
		}

		t.Fns = append(t.Fns, Fn{
			Name:   g.nm.Accessor(plan.el.Name.Value),
			Async:  true,
			Recv:   "&self",
			Params: plan.params(),
			Ret:    utamResult(g.accessorReturnType(plan.el)),
		})
	}

	for _, m := range g.doc.Methods {
		t.Fns = append(t.Fns, Fn{
			Name:   g.nm.Method(m.Name.Value),
			Async:  true,
			Recv:   "&self",
			Params: methodParams(m),
			Ret:    utamResult(methodReturnType(m)),
		})
	}

	return t
}

// waitForLoadFn polls load() until it succeeds or the deadline passes.
func (g *generator) waitForLoadFn() Fn {
	desc := g.nm.TypeName + " to load"

	return Fn{
		Doc:   []string{"Poll load() until it succeeds or the timeout elapses"},
		Name:  "wait_for_load",
		Pub:   true,
		Async: true,
		Params: []Param{
			{Name: "driver", Type: "&" + typeWebDriver},
			{Name: "timeout", Type: typeDuration},
		},
		Ret: utamResult("Self"),
		Body: []Stmt{
			Let{Name: "config", Expr: "WaitConfig { timeout, ..Default::default() }"},
			Raw{Lines: []string{
				"wait_for(",
				indentUnit + "|| async {",
				indentUnit + indentUnit + "match Self::load(driver).await {",
				indentUnit + indentUnit + indentUnit + "Ok(page) => Ok(Some(page)),",
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

// rootCapabilityFns surfaces the document-level capability tags as methods
// acting on the root element, in canonical tag order.
func (g *generator) rootCapabilityFns() []Fn {
	var fns []Fn

	present := make(map[string]bool, len(g.doc.ActionTypes))
	for _, tag := range g.doc.ActionTypes {
		present[tag.Value] = true
	}

	for _, tag := range semantic.CanonicalTags() {
		if !present[tag] {
			continue
		}

		for _, action := range semantic.TagActions(tag) {
			fns = append(fns, g.rootActionFn(tag, action))
		}
	}

	return fns
}

func (g *generator) rootActionFn(tag string, action semantic.Action) Fn {
	params := make([]Param, 0, len(action.Params))
	args := ""

	for i, p := range action.Params {
		name := fmt.Sprintf("arg%d", i)
		params = append(params, Param{Name: name, Type: actionParamType(p.Type)})

		if i > 0 {
			args += ", "
		}

		args += name
	}

	ret := actionReturnType(action.Result)

	return Fn{
		Doc:    []string{fmt.Sprintf("Apply %s to the root element", action.Name)},
		Name:   names.SnakeCase(action.Name),
		Pub:    true,
		Async:  true,
		Recv:   "&self",
		Params: params,
		Ret:    utamResult(ret),
		Body: []Stmt{
			Tail{Expr: fmt.Sprintf("%s::new(self.root.clone()).%s(%s).await",
				tagWrapper(tag), names.SnakeCase(action.Name), args)},
		},
	}
}
