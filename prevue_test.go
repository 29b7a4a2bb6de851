package prevue_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/morugetsm/prevue"
)

func TestRender_SimpleInterpolationIfFor(t *testing.T) {
	html := `<div><p v-if="u.age>=18">{{u.name}} adult</p><ul><li v-for="i in xs">{{i}}</li></ul></div>`
	data := map[string]any{
		"u":  map[string]any{"name": "A", "age": 28},
		"xs": []any{"a", "b"},
	}

	out, err := prevue.Render(html, data)
	require.NoError(t, err)

	assert.Contains(t, out, "<p>A adult</p>")
	assert.Equal(t, 2, strings.Count(out, "<li>"))
	assert.Contains(t, out, "<li>a</li>")
	assert.Contains(t, out, "<li>b</li>")
}

func TestRender_ScopeIsolation(t *testing.T) {
	src := `<div><h1>{{ let x=1; x }}</h1><h2>{{ x }}</h2></div>`

	out, err := prevue.Render(src, map[string]any{})
	require.NoError(t, err)

	assert.Contains(t, out, "<h1>1</h1>")
	assert.Contains(t, out, "<h2></h2>")
}

func TestRender_DynamicBind(t *testing.T) {
	src := `<a :[k]="v">t</a>`

	out, err := prevue.Render(src, map[string]any{"k": "href", "v": "/p"})
	require.NoError(t, err)
	assert.Contains(t, out, `<a href="/p">t</a>`)

	out, err = prevue.Render(src, map[string]any{"k": nil, "v": "/p"})
	require.NoError(t, err)
	assert.Contains(t, out, "<a>t</a>")

	out, err = prevue.Render(src, map[string]any{"k": "href", "v": nil})
	require.NoError(t, err)
	assert.Contains(t, out, "<a>t</a>")
}

func TestRender_IfElseIfElseChain(t *testing.T) {
	src := `<div id="a" v-if="false">A</div><div id="b" v-else-if="true">B</div><div id="c" v-else>C</div>`

	out, err := prevue.Render(src, map[string]any{})
	require.NoError(t, err)

	assert.NotContains(t, out, ">A<")
	assert.Contains(t, out, ">B<")
	assert.NotContains(t, out, ">C<")
}

func TestRender_TemplateForUnwrapping(t *testing.T) {
	src := `<template v-for="i in [1,2]"><em>{{i}}</em></template>`

	out, err := prevue.Render(src, map[string]any{})
	require.NoError(t, err)

	assert.NotContains(t, out, "<template")
	assert.Contains(t, out, "<em>1</em>")
	assert.Contains(t, out, "<em>2</em>")
}

func TestRender_VPre(t *testing.T) {
	src := `<div v-pre>{{x}}</div>`

	out, err := prevue.Render(src, map[string]any{"x": "nope"})
	require.NoError(t, err)

	assert.Contains(t, out, "{{x}}")
	assert.NotContains(t, out, "v-pre")
}

func TestRender_NoDirectiveAttributesLeakToOutput(t *testing.T) {
	src := `<div v-if="true" v-bind:title="'hi'"><span :data-x="1">ok</span></div>`

	out, err := prevue.Render(src, map[string]any{})
	require.NoError(t, err)

	for _, directive := range []string{"v-if", "v-else", "v-for", "v-bind", "v-pre"} {
		assert.NotContains(t, out, directive)
	}
}

func TestRender_VForArrayExactCount(t *testing.T) {
	src := `<ul><li v-for="x in xs">{{x}}</li></ul>`
	out, err := prevue.Render(src, map[string]any{"xs": []any{1, 2, 3, 4}})
	require.NoError(t, err)
	assert.Equal(t, 4, strings.Count(out, "<li>"))
}

func TestRender_VForObjectKeyOrder(t *testing.T) {
	src := `<span v-for="v, k in obj">{{k}}={{v}};</span>`
	out, err := prevue.Render(src, map[string]any{"obj": map[string]any{"a": 1, "b": 2}})
	require.NoError(t, err)
	assert.True(t, strings.Index(out, "a=1;") < strings.Index(out, "b=2;"))
}

func TestRender_StandaloneVElseKeepsElement(t *testing.T) {
	src := `<div v-else>orphan</div>`
	out, err := prevue.Render(src, map[string]any{})
	require.NoError(t, err)
	assert.Contains(t, out, "<div>orphan</div>")
}

func TestRender_MalformedVForRemovesHost(t *testing.T) {
	src := `<li v-for="not a valid loop expr">x</li>`
	out, err := prevue.Render(src, map[string]any{})
	require.NoError(t, err)
	assert.NotContains(t, out, "<li")
}

func TestRender_ObjectFormVBind(t *testing.T) {
	src := `<div v-bind="attrs">x</div>`
	out, err := prevue.Render(src, map[string]any{"attrs": map[string]any{"id": "main", "data-n": 5}})
	require.NoError(t, err)
	assert.Contains(t, out, `id="main"`)
	assert.Contains(t, out, `data-n="5"`)
	assert.NotContains(t, out, "v-bind")
}

func TestRender_RoundTripNoDirectives(t *testing.T) {
	src := `<div><p>hello</p></div>`
	out1, err := prevue.Render(src, map[string]any{"anything": 1})
	require.NoError(t, err)
	out2, err := prevue.Render(out1, map[string]any{"anything": 1})
	require.NoError(t, err)
	assert.Equal(t, out1, out2)
}

func TestRender_ParseAndSerializeNeverFatalOnBadExpression(t *testing.T) {
	src := `<p v-if="(((">x</p>`
	out, err := prevue.Render(src, map[string]any{})
	require.NoError(t, err)
	assert.NotContains(t, out, ">x<")
}

func TestRender_VForEmptyRemovesWhitespaceSiblingEntirely(t *testing.T) {
	src := "\n    <div>\n        <div v-for=\"item in []\">{{ item }}</div>\n    </div>\n    "
	out, err := prevue.Render(src, map[string]any{})
	require.NoError(t, err)
	assert.Contains(t, out, "<div>\n    </div>")
}

func TestRender_VForWithNonWhitespaceLeadingSibling(t *testing.T) {
	src := "\n    <div> hi\n        <div v-for=\"item in list\">{{ item }}</div>\n    </div>\n    "
	out, err := prevue.Render(src, map[string]any{"list": []any{1, 2, 3}})
	require.NoError(t, err)
	assert.Contains(t, out, "<div> hi\n        <div>1</div>\n        <div>2</div>\n        <div>3</div>\n    </div>")
}

func TestRender_VForWithPollutedLeadingSibling(t *testing.T) {
	src := "\n    <div> hi\n    hi  <div v-for=\"item in list\">{{ item }}</div>\n    </div>\n    "
	out, err := prevue.Render(src, map[string]any{"list": []any{1, 2, 3}})
	require.NoError(t, err)
	assert.Contains(t, out, "<div> hi\n    hi  <div>1</div>\n        <div>2</div>\n        <div>3</div>\n    </div>")
}

func TestRender_MustacheBodyMayContainSingleBraces(t *testing.T) {
	src := `<div>{{ JSON.stringify({a:1}) }}</div>`
	out, err := prevue.Render(src, map[string]any{})
	require.NoError(t, err)
	assert.Contains(t, out, `<div>{&#34;a&#34;:1}</div>`)
}
