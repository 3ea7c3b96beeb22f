package workflow

import "sort"

// maxDepth bounds the descent into upstream documents. Stripe line items nest
// three or four levels deep.
const maxDepth = 32

// Flatten collects every allow-listed scalar found at any depth of doc into a
// single mapping. Scalars of a level are applied first, then nested objects
// are walked in key order, so deeper values win on conflict.
func Flatten(doc map[string]any, fields []string) map[string]any {
	allowed := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		allowed[f] = struct{}{}
	}
	out := make(map[string]any)
	flatten(doc, allowed, out, 0)
	return out
}

func flatten(doc map[string]any, allowed map[string]struct{}, out map[string]any, depth int) {
	if depth >= maxDepth {
		return
	}

	var nested []string
	for k, v := range doc {
		if _, ok := asObject(v); ok {
			nested = append(nested, k)
			continue
		}
		if _, ok := allowed[k]; ok {
			out[k] = v
		}
	}

	sort.Strings(nested)
	for _, k := range nested {
		child, _ := asObject(doc[k])
		flatten(child, allowed, out, depth+1)
	}
}

func asObject(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Record:
		return m, true
	}
	return nil, false
}
