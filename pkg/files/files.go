// Package files loads a directory tree into a plugin collection and writes
// a collection back to disk.
package files

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/systemstart/many-plugins/pkg/api"
	"github.com/systemstart/many-plugins/pkg/pluginmanager"
)

const defaultMode fs.FileMode = 0o600

// File is one record of a collection.
type File struct {
	Contents []byte
	Mode     fs.FileMode
	Metadata map[string]any
}

// Collection is the collection type every built-in plugin works on.
type Collection = pluginmanager.Collection[*File]

// Clone returns a copy of f whose contents and metadata may be modified
// without affecting f.
func (f *File) Clone() *File {
	c := &File{
		Contents: slices.Clone(f.Contents),
		Mode:     f.Mode,
	}
	if f.Metadata != nil {
		c.Metadata = make(map[string]any, len(f.Metadata))
		for k, v := range f.Metadata {
			c.Metadata[k] = v
		}
	}
	return c
}

// Copy returns a shallow copy of the collection map.
func Copy(files Collection) Collection {
	out := make(Collection, len(files))
	for k, v := range files {
		out[k] = v
	}
	return out
}

// Match reports whether the slash-separated key is selected by filter.
// An empty include list selects everything.
func Match(filter api.FileFilter, key string) (bool, error) {
	include := filter.Include
	if len(include) == 0 {
		include = []string{api.DefaultFileInclude}
	}

	included, err := matchAny(include, key)
	if err != nil {
		return false, fmt.Errorf("include filter: %w", err)
	}
	if !included {
		return false, nil
	}

	excluded, err := matchAny(filter.Exclude, key)
	if err != nil {
		return false, fmt.Errorf("exclude filter: %w", err)
	}
	return !excluded, nil
}

// Select returns the sorted keys of files selected by filter.
func Select(files Collection, filter api.FileFilter) ([]string, error) {
	var keys []string
	for key := range files {
		ok, err := Match(filter, key)
		if err != nil {
			return nil, err
		}
		if ok {
			keys = append(keys, key)
		}
	}
	slices.Sort(keys)
	return keys, nil
}

func matchAny(patterns []string, key string) (bool, error) {
	for _, pattern := range patterns {
		ok, err := doublestar.Match(pattern, key)
		if err != nil {
			return false, fmt.Errorf("glob %q: %w", pattern, err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// ReadTree loads every regular file under root selected by filter. Keys are
// slash-separated paths relative to root.
func ReadTree(root string, filter api.FileFilter) (Collection, error) {
	out := make(Collection)

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walk error at %s: %w", p, err)
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, relErr := filepath.Rel(root, p)
		if relErr != nil {
			return fmt.Errorf("computing relative path for %s: %w", p, relErr)
		}
		key := filepath.ToSlash(rel)

		ok, matchErr := Match(filter, key)
		if matchErr != nil {
			return matchErr
		}
		if !ok {
			return nil
		}

		data, readErr := os.ReadFile(p)
		if readErr != nil {
			return fmt.Errorf("reading %s: %w", p, readErr)
		}

		info, infoErr := d.Info()
		if infoErr != nil {
			return fmt.Errorf("stat %s: %w", p, infoErr)
		}

		out[key] = &File{Contents: data, Mode: info.Mode().Perm()}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading tree: %w", err)
	}

	slog.Debug("read tree", "root", root, "files", len(out))
	return out, nil
}

// WriteTree writes every file of the collection below root, creating parent
// directories as needed. Keys must not escape root; nothing is written unless
// every key and record is valid.
func WriteTree(root string, files Collection) error {
	keys := make([]string, 0, len(files))
	for key, f := range files {
		if !fs.ValidPath(path.Clean(key)) {
			return fmt.Errorf("invalid file key %q", key)
		}
		if f == nil {
			return fmt.Errorf("file %q has no record", key)
		}
		keys = append(keys, key)
	}
	slices.Sort(keys)

	for _, key := range keys {
		f := files[key]
		target := filepath.Join(root, filepath.FromSlash(key))
		if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
			return fmt.Errorf("creating directory for %s: %w", key, err)
		}

		mode := f.Mode
		if mode == 0 {
			mode = defaultMode
		}
		if err := os.WriteFile(target, f.Contents, mode); err != nil {
			return fmt.Errorf("writing %s: %w", target, err)
		}
	}

	slog.Debug("wrote tree", "root", root, "files", len(files))
	return nil
}
