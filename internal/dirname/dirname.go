// Package dirname renders the configured directory-name template and
// sanitizes the result into something valid as a single path segment on
// the host filesystem. The substitution grammar is deliberately
// restricted to brace-delimited variable references; nothing here can
// execute arbitrary logic.
package dirname

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hitomidl/hitomidl/internal/hitomierr"
	"github.com/hitomidl/hitomidl/internal/model"
)

var sanitizer = strings.NewReplacer(
	"\\", " ",
	"/", " ",
	"\n", " ",
	":", "：",
	"*", "⭐",
	"?", "？",
	"\"", "'",
	"<", "《",
	">", "》",
	"|", "丨",
)

// Sanitize makes name safe as a single path segment: replace
// \ / \n with space, remap a handful of reserved characters to
// lookalikes, then trim leading/trailing whitespace and trailing '.'
// characters, then trim whitespace again. Sanitize is idempotent:
// Sanitize(Sanitize(x)) == Sanitize(x).
func Sanitize(name string) string {
	name = sanitizer.Replace(name)
	name = strings.TrimSpace(name)
	name = strings.TrimRight(name, ".")
	name = strings.TrimSpace(name)
	return name
}

// Render substitutes the known {id}/{title}/{language}/{language_localname}/
// {artists} variables into tmpl and sanitizes the result. An unbalanced
// brace or unknown variable name is a TemplateError.
func Render(tmpl string, params model.DirNameTemplateParams) (string, error) {
	vars := map[string]string{
		"id":                 strconv.Itoa(params.ID),
		"title":              params.Title,
		"language":           params.Language,
		"language_localname": params.LanguageLocalname,
		"artists":            params.Artists,
	}

	var b strings.Builder
	i := 0
	for i < len(tmpl) {
		c := tmpl[i]
		if c == '{' {
			end := strings.IndexByte(tmpl[i+1:], '}')
			if end < 0 {
				return "", fmt.Errorf("%w: unterminated '{' in template %q", hitomierr.ErrTemplate, tmpl)
			}
			end += i + 1
			name := tmpl[i+1 : end]
			val, ok := vars[name]
			if !ok {
				return "", fmt.Errorf("%w: unknown template variable %q", hitomierr.ErrTemplate, name)
			}
			b.WriteString(val)
			i = end + 1
			continue
		}
		if c == '}' {
			return "", fmt.Errorf("%w: unmatched '}' in template %q", hitomierr.ErrTemplate, tmpl)
		}
		b.WriteByte(c)
		i++
	}

	return Sanitize(b.String()), nil
}
