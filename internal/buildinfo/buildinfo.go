// Package buildinfo reads the package metadata served by /api/app/version.
package buildinfo

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	toml "github.com/pelletier/go-toml/v2"
)

var (
	// ErrNotFound is returned when the metadata file does not exist.
	ErrNotFound = errors.New("build metadata not found")
	// ErrInvalid is returned when the file cannot be parsed or has no [package] table.
	ErrInvalid = errors.New("build metadata invalid")
)

// Info is the [package] table of the metadata file. Absent or non-string
// keys stay empty.
type Info struct {
	Name    string
	Version string
	Edition string
}

// String renders the three fields on one line; missing values show as "none".
func (i Info) String() string {
	return fmt.Sprintf("name: %s, version: %s, edition: %s", orNone(i.Name), orNone(i.Version), orNone(i.Edition))
}

// Read parses the TOML file at path.
func Read(path string) (Info, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Info{}, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return Info{}, fmt.Errorf("read %s: %w", path, err)
	}
	return Parse(b)
}

// Parse decodes metadata from b.
func Parse(b []byte) (Info, error) {
	var doc map[string]any
	if err := toml.Unmarshal(b, &doc); err != nil {
		return Info{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	pkg, ok := doc["package"].(map[string]any)
	if !ok {
		return Info{}, fmt.Errorf("%w: missing [package] table", ErrInvalid)
	}
	return Info{
		Name:    str(pkg["name"]),
		Version: str(pkg["version"]),
		Edition: str(pkg["edition"]),
	}, nil
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
