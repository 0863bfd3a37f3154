package mapping

import "strings"

// Resolve walks root along a dotted path ("body.contact.email") and returns
// the value found there. The second return is false when the root is nil, the
// path is empty, an intermediate node is missing, or an intermediate node is
// not an object. Missing data is not an error here; rules simply skip.
func Resolve(root map[string]interface{}, path string) (interface{}, bool) {
	if root == nil || path == "" {
		return nil, false
	}

	segments := strings.Split(path, ".")
	var current interface{} = root

	for _, segment := range segments {
		obj, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		value, exists := obj[segment]
		if !exists {
			return nil, false
		}
		current = value
	}

	return current, true
}
