package storage

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Workspace gives filesystem access scoped to one client's subtree.
// Every operation resolves its target through the validator first, so
// nothing here can touch a path outside the workspace root.
type Workspace struct {
	id        string
	validator *PathValidator
}

func OpenWorkspace(baseAbs string, id string) (*Workspace, error) {
	validator, err := NewPathValidator(filepath.Join(baseAbs, id))
	if err != nil {
		return nil, err
	}

	return &Workspace{id: id, validator: validator}, nil
}

func (w *Workspace) ID() string {
	return w.id
}

func (w *Workspace) RootAbs() string {
	return w.validator.RootAbs()
}

func (w *Workspace) Resolve(relPath string) (string, error) {
	return w.validator.Resolve(relPath)
}

func (w *Workspace) MkdirAll(relPath string, perm fs.FileMode) error {
	resolved, err := w.Resolve(relPath)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(resolved, perm); err != nil {
		return fmt.Errorf("mkdir %q: %w", relPath, err)
	}

	return nil
}

func (w *Workspace) Stat(relPath string) (fs.FileInfo, error) {
	resolved, err := w.Resolve(relPath)
	if err != nil {
		return nil, err
	}

	return os.Stat(resolved)
}

func (w *Workspace) ReadDir(relPath string) ([]fs.DirEntry, error) {
	resolved, err := w.Resolve(relPath)
	if err != nil {
		return nil, err
	}

	return os.ReadDir(resolved)
}

func (w *Workspace) RemoveAll(relPath string) error {
	resolved, err := w.Resolve(relPath)
	if err != nil {
		return err
	}

	if err := os.RemoveAll(resolved); err != nil {
		return fmt.Errorf("remove %q: %w", relPath, err)
	}

	return nil
}

func (w *Workspace) Remove(relPath string) error {
	resolved, err := w.Resolve(relPath)
	if err != nil {
		return err
	}

	if err := os.Remove(resolved); err != nil {
		return err
	}

	return nil
}

// Rename moves an entry between two workspace-relative paths, creating
// the destination's parent if needed. Falls back to copy+delete across
// devices via MovePath.
func (w *Workspace) Rename(oldRel string, newRel string) error {
	oldResolved, err := w.Resolve(oldRel)
	if err != nil {
		return err
	}

	newResolved, err := w.Resolve(newRel)
	if err != nil {
		return err
	}

	return MovePath(oldResolved, newResolved)
}

func (w *Workspace) OpenForRead(relPath string) (*os.File, error) {
	resolved, err := w.Resolve(relPath)
	if err != nil {
		return nil, err
	}

	return os.Open(resolved)
}

func (w *Workspace) OpenForWrite(relPath string) (*os.File, error) {
	resolved, err := w.Resolve(relPath)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return nil, fmt.Errorf("create parent directory: %w", err)
	}

	return os.OpenFile(resolved, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
}

func (w *Workspace) WriteFile(relPath string, data []byte) error {
	file, err := w.OpenForWrite(relPath)
	if err != nil {
		return err
	}

	_, writeErr := file.Write(data)
	closeErr := file.Close()
	if writeErr != nil {
		return fmt.Errorf("write %q: %w", relPath, writeErr)
	}

	return closeErr
}
