package registry

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"llmserver/pkg/types"
)

// Store maps model identifiers to files under a local models directory.
type Store struct {
	dir string
}

// New returns a Store rooted at dir. A leading '~' is expanded and the result
// made absolute.
func New(dir string) (*Store, error) {
	base, err := ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	return &Store{dir: abs}, nil
}

// Dir returns the absolute models directory.
func (s *Store) Dir() string { return s.dir }

// SafeID replaces path separators in a model identifier so it can be used as
// a single directory name ("org/model" -> "org_model").
func SafeID(modelID string) string {
	r := strings.NewReplacer("/", "_", "\\", "_")
	return r.Replace(strings.Trim(modelID, "/\\ "))
}

// LocalPath returns the deterministic on-disk location of file for modelID.
func (s *Store) LocalPath(modelID, file string) (string, error) {
	id := SafeID(modelID)
	if id == "" || id == "." || id == ".." {
		return "", fmt.Errorf("invalid model id %q", modelID)
	}
	name := filepath.Base(filepath.Clean("/" + file))
	if name == "/" || name == "." {
		return "", fmt.Errorf("invalid file name %q", file)
	}
	return filepath.Join(s.dir, id, name), nil
}

// Resolve maps a configured model name to an existing file. The name is
// tried as given first, then relative to the models directory.
func (s *Store) Resolve(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("empty model name: %w", fs.ErrNotExist)
	}
	expanded, err := ExpandHome(name)
	if err != nil {
		return "", err
	}
	candidates := []string{expanded}
	if !filepath.IsAbs(expanded) {
		candidates = append(candidates, filepath.Join(s.dir, expanded))
	}
	for _, c := range candidates {
		fi, err := os.Stat(c)
		if err == nil && !fi.IsDir() {
			return filepath.Abs(c)
		}
	}
	return "", fmt.Errorf("model %q: %w", name, fs.ErrNotExist)
}

// Scan walks the models directory and returns every *.gguf and *.bin file.
// A missing directory yields an empty list.
func (s *Store) Scan() ([]types.Model, error) {
	var models []types.Model
	err := filepath.WalkDir(s.dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && p == s.dir {
				return fs.SkipAll
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(d.Name()))
		if ext != ".gguf" && ext != ".bin" {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(s.dir, p)
		if err != nil {
			return err
		}
		models = append(models, types.Model{ID: filepath.ToSlash(rel), Path: p, SizeBytes: fi.Size()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", s.dir, err)
	}
	sort.Slice(models, func(i, j int) bool { return models[i].ID < models[j].ID })
	return models, nil
}

// ExpandHome expands a leading '~' to the user's home directory.
func ExpandHome(path string) (string, error) {
	if path == "" || path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~/")), nil
}

// NonEmptyFile reports whether path is a regular file with content.
func NonEmptyFile(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular() && fi.Size() > 0
}
