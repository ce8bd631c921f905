package names

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/composable-delivery/busbar-sf-utam/pkg/diag"
	"github.com/composable-delivery/busbar-sf-utam/pkg/parser"
	"github.com/composable-delivery/busbar-sf-utam/pkg/source"
)

func TestSnakeCase(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "submit_button", SnakeCase("submitButton"))
	assert.Equal(t, "username_input", SnakeCase("usernameInput"))
	assert.Equal(t, "simple", SnakeCase("simple"))
	assert.Equal(t, "httprequest", SnakeCase("HTTPRequest"))
	assert.Equal(t, "my_httpsconnection", SnakeCase("myHTTPSConnection"))
}

func TestPascalCase(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "LoginForm", PascalCase("login-form"))
	assert.Equal(t, "SimpleButton", PascalCase("simple_button"))
	assert.Equal(t, "SimpleButton", PascalCase("simpleButton"))
	assert.Equal(t, "Component", PascalCase("component"))
	assert.Equal(t, "MyTestComponent", PascalCase("my-test.component"))
}

func TestTypeNameForOrigin(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "FooBar", TypeNameForOrigin("pages/foo-bar.utam.json"))
	assert.Equal(t, "LoginForm", TypeNameForOrigin("login-form.json"))
	assert.Equal(t, "PageObject", TypeNameForOrigin("<stdin>"))
}

func TestAccessorAndWaitNames(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "get_submit_button", AccessorName("submitButton"))
	assert.Equal(t, "wait_for_submit_button", WaitName("submitButton"))
}

func TestIsReserved(t *testing.T) {
	t.Parallel()

	assert.True(t, IsReserved("match"))   // Rust.
	assert.True(t, IsReserved("package")) // Java.
	assert.True(t, IsReserved("typeof"))  // JavaScript.
	assert.False(t, IsReserved("submit_button"))
}

func TestParseComponentRef_Valid(t *testing.T) {
	t.Parallel()

	ref, err := ParseComponentRef("pkg/pageObjects/x/y/my-widget")
	require.NoError(t, err)
	assert.Equal(t, "pkg", ref.Package)
	assert.Equal(t, []string{"x", "y"}, ref.Segments)
	assert.Equal(t, "my-widget", ref.Name)

	assert.Equal(t, "MyWidget", ComponentTypeName(ref))
	assert.Equal(t, "pkg::x::y", ComponentModulePath(ref))
}

func TestParseComponentRef_NoSegments(t *testing.T) {
	t.Parallel()

	ref, err := ParseComponentRef("utam-app/pageObjects/component")
	require.NoError(t, err)
	assert.Empty(t, ref.Segments)
	assert.Equal(t, "utam_app", ComponentModulePath(ref))
}

func TestParseComponentRef_Errors(t *testing.T) {
	t.Parallel()

	_, err := ParseComponentRef("noMarkerHere/widget")
	assert.ErrorIs(t, err, ErrComponentPathMarker)

	_, err = ParseComponentRef("pageObjects/widget")
	assert.ErrorIs(t, err, ErrComponentPathPackage)

	_, err = ParseComponentRef("pkg/pageObjects")
	assert.ErrorIs(t, err, ErrComponentPathName)

	_, err = ParseComponentRef("pkg/pageObjects/a/pageObjects/b")
	assert.ErrorIs(t, err, ErrComponentPathMarker)
}

func buildFromText(t *testing.T, origin, text string) (*Map, *diag.Bundle) {
	t.Helper()

	src := source.New(origin, text)
	res := parser.Parse(src)
	require.NotNil(t, res.Doc)

	return Build(src, res.Doc)
}

func TestBuild_MapsAccessorsAndMethods(t *testing.T) {
	t.Parallel()

	m, bundle := buildFromText(t, "login-form.utam.json", `{
		"elements": [
			{"name": "submitButton", "selector": {"css": "button"}, "wait": true}
		],
		"methods": [{"name": "clickSubmit", "compose": [{"element": "submitButton", "apply": "click"}]}]
	}`)

	assert.Equal(t, 0, bundle.Len())
	assert.Equal(t, "LoginForm", m.TypeName)
	assert.Equal(t, "get_submit_button", m.Accessor("submitButton"))
	assert.Equal(t, "wait_for_submit_button", m.Wait("submitButton"))
	assert.Equal(t, "click_submit", m.Method("clickSubmit"))
}

func TestBuild_DetectsAccessorCollision(t *testing.T) {
	t.Parallel()

	// Distinct grammar names that snake_case identically.
	_, bundle := buildFromText(t, "x.utam.json", `{
		"elements": [
			{"name": "myButton", "selector": {"css": ".a"}},
			{"name": "MyButton", "selector": {"css": ".b"}}
		]
	}`)

	require.Equal(t, 1, bundle.Len())

	d := bundle.All()[0]
	assert.Equal(t, diag.CodeIdentifierCollision, d.Code)
	require.Len(t, d.Secondary, 1)
}

func TestBuild_MethodAccessorCollision(t *testing.T) {
	t.Parallel()

	_, bundle := buildFromText(t, "x.utam.json", `{
		"elements": [{"name": "status", "selector": {"css": ".s"}}],
		"methods": [{"name": "getStatus", "compose": [{"element": "status"}]}]
	}`)

	require.Equal(t, 1, bundle.Len())
	assert.Equal(t, diag.CodeIdentifierCollision, bundle.All()[0].Code)
}

func TestBuild_NestedShadowElementsMapped(t *testing.T) {
	t.Parallel()

	m, bundle := buildFromText(t, "x.utam.json", `{
		"shadow": {"elements": [
			{"name": "inner", "selector": {"css": ".x"},
			 "shadow": {"elements": [{"name": "leaf", "selector": {"css": ".leaf"}}]}}
		]}
	}`)

	assert.Equal(t, 0, bundle.Len())
	assert.Equal(t, "get_inner", m.Accessor("inner"))
	assert.Equal(t, "get_leaf", m.Accessor("leaf"))
}
