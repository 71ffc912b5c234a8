// Package mustache provides a Mustache template engine for rendering request
// bodies, queries and other machine-readable text from graph state.
//
// Templates are compiled once into an immutable Template and rendered many
// times, concurrently if needed, against different data.
//
// Example usage:
//
//	engine := mustache.NewEngine(logger)
//
//	tmpl, err := engine.Compile(`{"query": {"match": {"body": "{{text}}"}}}`, mustache.Options{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	out := engine.Bind(tmpl, map[string]interface{}{"text": "gift"}).Run()
//	// Output: {"query": {"match": {"body": "gift"}}}
//
// Variables are resolved by dotted path. Numeric segments index lists and
// sets, and the synthetic "size" segment yields a collection's length:
//
//	{{data.0}}          # first element
//	{{data.0.key}}      # key of the first element
//	{{data.size}}       # element count
//
// A path that cannot be resolved renders as the empty string.
//
// Custom helpers:
//   - toJson - Serialize the named value (or "." for the current scope) as JSON
//   - join   - Join a list with a delimiter, "," unless delimiter='...' is given
//   - url    - Form-urlencode the rendered block
//
// Example with helpers:
//
//	{{#toJson}}ctx.first{{/toJson}}                       # {"name":"John Smith","age":42}
//	{{#join delimiter=' and '}}params{{/join delimiter=' and '}} # 1 and 2 and 3
//	{{#url}}{{#join}}indices{{/join}}{{/url}}              # a%2Cb%2Cc
//
// Variable output is written as is unless the template is compiled with the
// "content_type" option set to application/json or
// application/x-www-form-urlencoded. Triple mustaches ({{{name}}}) and
// ampersand tags ({{&name}}) always write unescaped output.
package mustache
