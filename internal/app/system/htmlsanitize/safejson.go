package htmlsanitize

import (
	"encoding/json"
	"html/template"
	"strings"
)

// json.Marshal already escapes <, > and & as \u003c, \u003e, \u0026.
var quoteEscaper = strings.NewReplacer("'", `\u0027`)

// SafeJSON encodes v for embedding inside an inline <script>. Values that
// cannot be encoded (cycles, channels, funcs) produce "{}".
func SafeJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return quoteEscaper.Replace(string(b))
}

// SafeJS is SafeJSON typed for html/template script contexts.
func SafeJS(v any) template.JS {
	return template.JS(SafeJSON(v))
}
