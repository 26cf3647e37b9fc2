package render

import (
	"fmt"
	"strings"
)

// Substitute replaces every {name} placeholder in tpl with fields[name].
// "{{" and "}}" produce literal braces, so inline CSS in the template has
// to double its braces. A placeholder without a value, an unclosed "{" or
// a lone "}" is an ErrConfiguration.
func Substitute(tpl string, fields map[string]string) (string, error) {
	var b strings.Builder
	b.Grow(len(tpl))

	for i := 0; i < len(tpl); i++ {
		c := tpl[i]
		switch c {
		case '{':
			if i+1 < len(tpl) && tpl[i+1] == '{' {
				b.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexByte(tpl[i+1:], '}')
			if end < 0 {
				return "", fmt.Errorf("%w: unclosed placeholder at offset %d", ErrConfiguration, i)
			}
			name := tpl[i+1 : i+1+end]
			val, ok := fields[name]
			if !ok {
				return "", fmt.Errorf("%w: no value for template placeholder {%s}", ErrConfiguration, name)
			}
			b.WriteString(val)
			i += end + 1
		case '}':
			if i+1 < len(tpl) && tpl[i+1] == '}' {
				b.WriteByte('}')
				i++
				continue
			}
			return "", fmt.Errorf("%w: single '}' at offset %d", ErrConfiguration, i)
		default:
			b.WriteByte(c)
		}
	}

	return b.String(), nil
}
