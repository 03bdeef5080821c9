package actions

import (
	"fmt"
	"regexp"
	"strconv"
)

// Two placeholder syntaxes coexist across action families: the generic email
// and solana handlers use {key}, the provider specific handlers use {{key}}.
// Unmatched keys are left in place for both.

var (
	singleBraceRe = regexp.MustCompile(`\{([a-zA-Z0-9_.]+)\}`)
	doubleBraceRe = regexp.MustCompile(`\{\{([a-zA-Z0-9_.]+)\}\}`)
)

// ApplySingle substitutes {key} placeholders from values.
func ApplySingle(template string, values map[string]string) string {
	return singleBraceRe.ReplaceAllStringFunc(template, func(match string) string {
		key := singleBraceRe.FindStringSubmatch(match)[1]
		if v, ok := values[key]; ok {
			return v
		}
		return match
	})
}

// ApplyDouble substitutes {{key}} placeholders from values.
func ApplyDouble(template string, values map[string]string) string {
	return doubleBraceRe.ReplaceAllStringFunc(template, func(match string) string {
		key := doubleBraceRe.FindStringSubmatch(match)[1]
		if v, ok := values[key]; ok {
			return v
		}
		return match
	})
}

// Flatten turns a decoded JSON payload into dotted string keys so nested
// values are addressable in templates, eg {comment.amount}.
func Flatten(payload map[string]any) map[string]string {
	out := make(map[string]string)
	flattenInto(out, "", payload)
	return out
}

func flattenInto(out map[string]string, prefix string, value map[string]any) {
	for k, v := range value {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch typed := v.(type) {
		case map[string]any:
			flattenInto(out, key, typed)
		case string:
			out[key] = typed
		case float64:
			out[key] = strconv.FormatFloat(typed, 'f', -1, 64)
		case bool:
			out[key] = strconv.FormatBool(typed)
		case nil:
			out[key] = ""
		default:
			out[key] = fmt.Sprintf("%v", typed)
		}
	}
}
