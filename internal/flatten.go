package internal

import "strconv"

// Flatten collapses a nested payload into a single-level map with
// dot-separated keys, so filter expressions can address nested fields.
// `{"pull_request": {"draft": false}}` becomes `{"pull_request.draft": false}`.
// Array elements get indexed keys: `labels[0]`.
func Flatten(data map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{})
	for key, value := range data {
		flattenInto(out, key, value)
	}
	return out
}

func flattenInto(out map[string]interface{}, path string, value interface{}) {
	switch typed := value.(type) {
	case map[string]interface{}:
		for key, child := range typed {
			flattenInto(out, path+"."+key, child)
		}
	case []interface{}:
		out[path] = typed
		for i, child := range typed {
			flattenInto(out, path+"["+strconv.Itoa(i)+"]", child)
		}
	default:
		out[path] = value
	}
}
