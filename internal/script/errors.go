package script

import "errors"

var (
	// ErrUnknownLang is returned when no engine is registered for a language
	ErrUnknownLang = errors.New("unknown script language")

	// ErrScriptNotFound is returned when a stored script id is not in the catalog
	ErrScriptNotFound = errors.New("script not found")
)
