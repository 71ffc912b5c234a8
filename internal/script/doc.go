// Package script compiles and runs scripts written in any registered
// template or expression language.
//
// A Service holds one Engine per language. Scripts are either inline
// (Source set) or stored (only ID set, resolved through a YAML Catalog).
// Compilations are cached by language, source and options, so repeated
// renders of the same template compile once.
//
// Example usage:
//
//	svc := script.NewService(cfg.ScriptCacheSize, script.LangMustache, catalog, logger)
//	svc.Register(script.NewMustacheEngine(mustache.NewEngine(logger)))
//	svc.Register(script.NewHandlebarsEngine(handlebars.NewEngine(logger)))
//	svc.Register(script.NewExpressionEngine(cel.NewEvaluator()))
//
//	out, err := svc.Run(script.Script{Source: "Hi {{name}}"}, map[string]interface{}{
//	    "name": "ada",
//	})
//
// Catalog files look like:
//
//	scripts:
//	  - id: search_query
//	    lang: mustache
//	    source: "{{#url}}{{q}}{{/url}}"
//	    options:
//	      content_type: text/plain
package script
