package docstore

import "strings"

// BuildLocator joins a root prefix, container, optional sub-path, and leaf
// name into the normalized server-relative locator: exactly one leading
// separator, duplicate separators collapsed, no trailing separator. Any
// part may be empty; an all-empty address yields "/".
func BuildLocator(root, container, subPath, leaf string) string {
	joined := root + "/" + container + "/" + subPath + "/" + leaf
	segs := make([]string, 0, 8)
	for _, part := range strings.Split(joined, "/") {
		if part != "" {
			segs = append(segs, part)
		}
	}
	return "/" + strings.Join(segs, "/")
}
