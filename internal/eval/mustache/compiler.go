package mustache

import (
	"strings"
)

const (
	openDelim   = "{{"
	closeDelim  = "}}"
	tripleClose = "}}}"
)

// tag is a scanned {{...}} element
type tag struct {
	sigil byte // 0 for a plain variable
	name  string
	line  int
}

// token is either literal text or a tag
type token struct {
	text  string
	tag   *tag
	isTag bool
}

// scan splits src into text and tag tokens
func scan(tmplName, src string) ([]token, error) {
	var tokens []token
	line := 1
	pos := 0
	for pos < len(src) {
		start := strings.Index(src[pos:], openDelim)
		if start < 0 {
			tokens = append(tokens, token{text: src[pos:]})
			break
		}
		start += pos
		if start > pos {
			text := src[pos:start]
			tokens = append(tokens, token{text: text})
			line += strings.Count(text, "\n")
		}

		inner := start + len(openDelim)
		closing := closeDelim
		var sigil byte
		if inner < len(src) && src[inner] == '{' {
			closing = tripleClose
			sigil = '{'
			inner++
		}
		end := strings.Index(src[inner:], closing)
		if end < 0 {
			return nil, newSyntaxError(tmplName, line, "Unclosed tag")
		}
		end += inner
		body := src[inner:end]
		if sigil == 0 {
			body = strings.TrimSpace(body)
			if body != "" && strings.IndexByte("#^/&!>=", body[0]) >= 0 {
				sigil = body[0]
				body = body[1:]
			}
		}
		name := strings.TrimSpace(body)
		if name == "" {
			return nil, newSyntaxError(tmplName, line, "Empty tag")
		}
		switch sigil {
		case '!', '>', '=':
			return nil, newSyntaxError(tmplName, line, "Unsupported tag type [%c]", sigil)
		}
		tokens = append(tokens, token{isTag: true, tag: &tag{sigil: sigil, name: name, line: line}})
		line += strings.Count(src[start:end], "\n")
		pos = end + len(closing)
	}
	return tokens, nil
}

// frame is an open section while building the node tree
type frame struct {
	open  *tag
	nodes []node
}

// compile parses src into a node tree
func compile(tmplName, src string) ([]node, error) {
	tokens, err := scan(tmplName, src)
	if err != nil {
		return nil, err
	}

	stack := []*frame{{}}
	for _, tok := range tokens {
		top := stack[len(stack)-1]
		if !tok.isTag {
			top.nodes = append(top.nodes, &textNode{text: tok.text})
			continue
		}

		t := tok.tag
		switch t.sigil {
		case 0:
			top.nodes = append(top.nodes, &variableNode{path: ParsePath(t.name)})
		case '{', '&':
			top.nodes = append(top.nodes, &variableNode{path: ParsePath(t.name), raw: true})
		case '#', '^':
			stack = append(stack, &frame{open: t})
		case '/':
			if len(stack) == 1 {
				return nil, newSyntaxError(tmplName, t.line, "Unexpected close tag [%s]", t.name)
			}
			if top.open.name != t.name {
				return nil, newSyntaxError(tmplName, t.line,
					"Mismatched start/end tags: [%s] != [%s]", top.open.name, t.name)
			}
			stack = stack[:len(stack)-1]
			n, err := buildBlock(tmplName, top)
			if err != nil {
				return nil, err
			}
			parent := stack[len(stack)-1]
			parent.nodes = append(parent.nodes, n)
		}
	}

	if len(stack) > 1 {
		open := stack[len(stack)-1].open
		return nil, newSyntaxError(tmplName, open.line, "Unclosed section [%s]", open.name)
	}
	return stack[0].nodes, nil
}

// buildBlock turns a closed frame into a section or helper node
func buildBlock(tmplName string, f *frame) (node, error) {
	if f.open.sigil == '#' {
		word, rest := splitWord(f.open.name)
		if kind, ok := lookupHelper(word); ok {
			return buildHelper(tmplName, kind, rest, f)
		}
	}
	return &sectionNode{
		path:     ParsePath(f.open.name),
		inverted: f.open.sigil == '^',
		body:     f.nodes,
	}, nil
}

func splitWord(s string) (string, string) {
	if i := strings.IndexAny(s, " \t\r\n"); i >= 0 {
		return s[:i], s[i+1:]
	}
	return s, ""
}

func buildHelper(tmplName string, kind HelperKind, rawOpts string, f *frame) (node, error) {
	args, err := parseOptions(rawOpts)
	if err != nil {
		return nil, newSyntaxError(tmplName, f.open.line, "Mustache function [%s] has invalid options: %v", kind, err)
	}
	allowed := helperOptions[kind]
	for k := range args {
		if !contains(allowed, k) {
			return nil, newSyntaxError(tmplName, f.open.line, "Mustache function [%s] does not support option [%s]", kind, k)
		}
	}

	h := &helperNode{kind: kind, args: args, body: f.nodes}
	if kind == HelperURL {
		return h, nil
	}

	invalid := newSyntaxError(tmplName, f.open.line, "Mustache function [%s] must contain one and only one identifier", kind)
	if len(f.nodes) != 1 {
		return nil, invalid
	}
	var ident string
	switch n := f.nodes[0].(type) {
	case *textNode:
		ident = strings.TrimSpace(n.text)
	case *variableNode:
		ident = n.path.String()
	case *helperNode:
		h.passthrough = true
		return h, nil
	}
	if !validIdentifier(ident) || (ident == "." && kind != HelperToJSON) {
		return nil, invalid
	}
	h.path = ParsePath(ident)
	return h, nil
}

func contains(list []string, s string) bool {
	for _, e := range list {
		if e == s {
			return true
		}
	}
	return false
}
