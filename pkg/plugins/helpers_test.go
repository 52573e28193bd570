package plugins

import (
	"slices"

	"github.com/systemstart/many-plugins/pkg/files"
)

// keysOf returns the sorted keys of a collection for failure messages.
func keysOf(c files.Collection) []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func textFile(s string) *files.File {
	return &files.File{Contents: []byte(s)}
}
