package store

import (
	"strings"

	"github.com/cwstack/keyerd/internal/schema"
)

// resolveIdents assigns each parameter its external identifier. A bare
// name that is unique across the whole model is used as-is; a name
// shared by two or more parameters is replaced by the full path with
// dots flattened to underscores, so "brightness" declared under both
// leds and display becomes "leds_brightness" and "display_brightness".
func resolveIdents(params []schema.Parameter) []string {
	counts := make(map[string]int, len(params))
	for i := range params {
		counts[params[i].Name]++
	}

	idents := make([]string, len(params))
	for i := range params {
		if counts[params[i].Name] > 1 {
			idents[i] = strings.ReplaceAll(params[i].FullPath, ".", "_")
		} else {
			idents[i] = params[i].Name
		}
	}
	return idents
}
