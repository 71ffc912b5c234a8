package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRenderFile(t *testing.T) {
	dir := t.TempDir()
	tmpl := writeFile(t, dir, "body.mustache", `{"user":{{#toJson}}user{{/toJson}},"tags":"{{#join delimiter='|'}}tags{{/join delimiter='|'}}"}`)
	params := writeFile(t, dir, "params.json", `{"user":{"name":"ada","id":7},"tags":["a","b"]}`)

	out, err := runCLI(t, "", "render", tmpl, "-p", params)
	require.NoError(t, err)
	assert.Equal(t, `{"user":{"name":"ada","id":7},"tags":"a|b"}`, out)
}

func TestRenderInlineWithStdinParams(t *testing.T) {
	out, err := runCLI(t, `{"q":"a b&c"}`, "render", "-e", "{{q}}", "-p", "-", "--content-type", "application/x-www-form-urlencoded")
	require.NoError(t, err)
	assert.Equal(t, "a+b%26c", out)
}

func TestRenderLanguages(t *testing.T) {
	out, err := runCLI(t, `{"n":2}`, "render", "-l", "expression", "-e", "params.n * 21", "-p", "-")
	require.NoError(t, err)
	assert.Equal(t, "42\n", out)

	out, err = runCLI(t, `{"s":"hi"}`, "render", "-l", "handlebars", "-e", "{{uppercase s}}", "-p", "-")
	require.NoError(t, err)
	assert.Equal(t, "HI", out)
}

func TestRenderStored(t *testing.T) {
	dir := t.TempDir()
	catalog := writeFile(t, dir, "templates.yaml", `
scripts:
  - id: greet
    lang: handlebars
    source: "Hello {{name}}"
`)
	out, err := runCLI(t, `{"name":"bob"}`, "render", "--catalog", catalog, "--id", "greet", "-p", "-")
	require.NoError(t, err)
	assert.Equal(t, "Hello bob", out)
}

func TestRenderErrors(t *testing.T) {
	_, err := runCLI(t, "", "render")
	assert.Error(t, err)

	_, err = runCLI(t, "", "render", "-e", "x", "--id", "y")
	assert.Error(t, err)

	_, err = runCLI(t, "", "render", "-e", "{{#join}}a b{{/join}}")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Mustache function [join] must contain one and only one identifier")

	_, err = runCLI(t, "[1]", "render", "-e", "x", "-p", "-")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.mustache", "{{#url}}{{q}}{{/url}}")
	bad := writeFile(t, dir, "bad.mustache", "{{#toJson}}{{/url}}")
	catalog := writeFile(t, dir, "templates.yaml", `
scripts:
  - id: stored
    source: "{{a}}"
`)

	out, err := runCLI(t, "", "validate", good, "--catalog", catalog)
	require.NoError(t, err)
	assert.Contains(t, out, "ok   "+good)
	assert.Contains(t, out, "ok   stored")

	out, err = runCLI(t, "", "validate", good, bad)
	require.Error(t, err)
	assert.Contains(t, out, "FAIL "+bad)
	assert.Contains(t, out, "Mismatched start/end tags")

	_, err = runCLI(t, "", "validate")
	assert.Error(t, err)
}
