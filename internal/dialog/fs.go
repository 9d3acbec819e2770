// Package dialog provides the file collaborator for the workspace: a
// filesystem-backed stand-in for a desktop open/save dialog, rooted at a
// single pipelines directory.
package dialog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/mattjoyce/flowdeck/internal/workspace"
)

// FS reads and writes pipeline files under a base directory. A caller picks
// the file to open first; an Open with nothing picked behaves like a
// cancelled dialog.
type FS struct {
	dir string

	mu   sync.Mutex
	next string
}

var _ workspace.Dialog = (*FS)(nil)

// NewFS creates a filesystem dialog rooted at dir.
func NewFS(dir string) (*FS, error) {
	trimmed := strings.TrimSpace(dir)
	if trimmed == "" {
		return nil, fmt.Errorf("pipelines directory is empty")
	}
	return &FS{dir: filepath.Clean(trimmed)}, nil
}

// Pick selects the file the next Open call returns. The name is a bare file
// name inside the dialog's directory, never a path.
func (d *FS) Pick(name string) error {
	if err := validateName(name); err != nil {
		return err
	}

	d.mu.Lock()
	d.next = name
	d.mu.Unlock()
	return nil
}

// Open returns the contents of the picked file and clears the pick. With no
// pick pending it reports workspace.ErrCancelled.
func (d *FS) Open(ctx context.Context) ([]byte, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	d.mu.Lock()
	name := d.next
	d.next = ""
	d.mu.Unlock()

	if name == "" {
		return nil, "", workspace.ErrCancelled
	}

	path := filepath.Join(d.dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("open pipeline file %q: %w", name, err)
	}
	return data, path, nil
}

// Save writes data under defaultName in the dialog's directory and returns
// the resulting path. Existing files are overwritten.
func (d *FS) Save(ctx context.Context, data []byte, defaultName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := validateName(defaultName); err != nil {
		return "", err
	}

	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return "", fmt.Errorf("create pipelines directory: %w", err)
	}

	path := filepath.Join(d.dir, defaultName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write pipeline file %q: %w", defaultName, err)
	}
	return path, nil
}

// List returns the pipeline file names in the directory, sorted. A missing
// directory lists as empty.
func (d *FS) List() ([]string, error) {
	entries, err := os.ReadDir(d.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read pipelines directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

func validateName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return fmt.Errorf("file name is empty")
	}
	if trimmed == "." || trimmed == ".." {
		return fmt.Errorf("file name %q is invalid", name)
	}
	if strings.Contains(trimmed, "/") || strings.Contains(trimmed, `\`) {
		return fmt.Errorf("file name %q must not contain path separators", name)
	}
	if filepath.Clean(trimmed) != trimmed {
		return fmt.Errorf("file name %q is invalid", name)
	}
	return nil
}
