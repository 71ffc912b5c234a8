package mustache

// node is an element of a compiled template. Nodes are immutable once the
// compiler returns them, so one tree can be rendered from many goroutines.
type node interface {
	render(dst []byte, s scopes, enc encoder) []byte
}

func renderNodes(dst []byte, nodes []node, s scopes, enc encoder) []byte {
	for _, n := range nodes {
		dst = n.render(dst, s, enc)
	}
	return dst
}

// textNode is literal template text
type textNode struct {
	text string
}

func (n *textNode) render(dst []byte, _ scopes, _ encoder) []byte {
	return append(dst, n.text...)
}

// variableNode substitutes a resolved value. raw nodes ({{{x}}} and {{&x}})
// bypass the content type encoder.
type variableNode struct {
	path Path
	raw  bool
}

func (n *variableNode) render(dst []byte, s scopes, enc encoder) []byte {
	v, ok := s.resolve(n.path)
	if !ok {
		return dst
	}
	if n.raw {
		return append(dst, v.Text()...)
	}
	return enc(dst, v.Text())
}

// sectionNode is {{#name}}...{{/name}} or, when inverted, {{^name}}...{{/name}}
type sectionNode struct {
	path     Path
	inverted bool
	body     []node
}

func (n *sectionNode) render(dst []byte, s scopes, enc encoder) []byte {
	v, ok := s.resolve(n.path)
	truthy := ok && v.Truthy()
	if n.inverted {
		if truthy {
			return dst
		}
		return renderNodes(dst, n.body, s, enc)
	}
	if !truthy {
		return dst
	}
	if v.IsCollection() {
		for _, e := range v.elems {
			dst = renderNodes(dst, n.body, append(s, e), enc)
		}
		return dst
	}
	return renderNodes(dst, n.body, append(s, v), enc)
}
