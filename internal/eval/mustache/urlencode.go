package mustache

import (
	"net/url"
	"strings"
)

// url.QueryEscape keeps '~' and escapes '*'; form encoding does the reverse
var formEncodingFixups = strings.NewReplacer("%2A", "*", "~", "%7E")

// URLEncode form-urlencodes s: spaces become '+', ASCII letters, digits and
// ". - * _" are kept and every other byte of the UTF-8 encoding becomes %XX.
func URLEncode(s string) string {
	return formEncodingFixups.Replace(url.QueryEscape(s))
}

func appendURLEncoded(dst []byte, s string) []byte {
	return append(dst, URLEncode(s)...)
}
