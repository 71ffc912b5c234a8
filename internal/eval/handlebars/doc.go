// Package handlebars provides the Handlebars script language, backed by raymond.
//
// Templates get the same toJson, join and url helpers as the mustache
// language, written in Handlebars call syntax, plus a few string and
// comparison helpers.
//
// Example usage:
//
//	engine := handlebars.NewEngine(logger)
//
//	tmpl, err := engine.Compile("{{join tags delimiter=\"/\"}} {{#url}}{{q}}{{/url}}")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	out, err := tmpl.Exec(map[string]interface{}{
//	    "tags": []string{"a", "b"},
//	    "q":    "x y",
//	})
//	// out: "a/b x+y"
//
// Built-in helpers:
//   - toJson - Serialize a value, scalars unquoted
//   - join - Join array elements, delimiter hash argument defaults to ","
//   - url - Form-urlencode the rendered block
//   - uppercase, lowercase, trim - String case and whitespace
//   - default - Return default value if first arg is empty
//   - eq, ne - Equality comparison
//   - gt, lt - Numeric comparison
//   - contains - Check if string contains substring
//   - len - Get length of array/string/map
package handlebars
