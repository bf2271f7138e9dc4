// Path surface: "<filepath>^<split-spec>".
package fdd

import "strings"

// splitPath separates a path's optional split suffix. Absence of '^'
// returns spec == "".
func splitPath(path string) (file, spec string) {
	file, spec, _ = strings.Cut(path, "^")
	return file, spec
}
