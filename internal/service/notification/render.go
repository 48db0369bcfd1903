package notification

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// defaultMaxLength is the WhatsApp text body limit used when none is
// configured.
const defaultMaxLength = 1024

var placeholderRe = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*\}\}`)

// ErrMissingVariables wraps the names of placeholders a template requires
// but the variable map does not provide.
type ErrMissingVariables struct {
	Keys []string
}

func (e *ErrMissingVariables) Error() string {
	return fmt.Sprintf("missing template variables: %s", strings.Join(e.Keys, ", "))
}

// requiredKeys extracts the set of placeholder names used by a template.
func requiredKeys(template string) []string {
	seen := make(map[string]struct{})
	var keys []string

	for _, m := range placeholderRe.FindAllStringSubmatch(template, -1) {
		if _, ok := seen[m[1]]; ok {
			continue
		}
		seen[m[1]] = struct{}{}
		keys = append(keys, m[1])
	}

	return keys
}

// render substitutes {{placeholder}} occurrences with values from vars and
// truncates the result to limit runes. Every placeholder must have a
// value; a missing one fails this notification only.
func render(template string, vars map[string]string, limit int) (string, error) {
	var missing []string
	for _, key := range requiredKeys(template) {
		if _, ok := vars[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return "", &ErrMissingVariables{Keys: missing}
	}

	rendered := placeholderRe.ReplaceAllStringFunc(template, func(m string) string {
		key := placeholderRe.FindStringSubmatch(m)[1]
		return vars[key]
	})

	return truncate(rendered, limit), nil
}

// truncate cuts a message to limit runes, marking the cut with an ellipsis.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-3]) + "..."
}
