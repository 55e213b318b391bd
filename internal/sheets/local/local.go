// Package local stores exported files in a directory tree:
// <root>/<parent>/<folder>/<file>.
package local

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"timesheets/internal/sheets"
)

type Folders struct {
	root string
}

var _ sheets.FolderStore = (*Folders)(nil)

func New(root string) *Folders {
	return &Folders{root: root}
}

// ResolveFolder implements sheets.FolderStore.
func (f *Folders) ResolveFolder(ctx context.Context, parentID, name string) (sheets.Folder, error) {
	if err := checkName(name); err != nil {
		return sheets.Folder{}, err
	}
	parent := filepath.Join(f.root, parentID)
	if parentID != "" {
		if err := checkName(parentID); err != nil {
			return sheets.Folder{}, err
		}
	}
	dir := filepath.Join(parent, name)
	folder := sheets.Folder{ID: dir, Name: name, URL: fileURL(dir)}

	if st, err := os.Stat(dir); err == nil && st.IsDir() {
		slog.InfoContext(ctx, "Using existing folder", "url", folder.URL)
		return folder, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return sheets.Folder{}, fmt.Errorf("create folder %s: %w", dir, err)
	}
	slog.InfoContext(ctx, "Created folder", "url", folder.URL)
	return folder, nil
}

// TrashFiles implements sheets.FolderStore.
func (f *Folders) TrashFiles(_ context.Context, folder sheets.Folder, name string) (int, error) {
	if err := checkName(name); err != nil {
		return 0, err
	}
	err := os.Remove(filepath.Join(folder.ID, name))
	switch {
	case err == nil:
		return 1, nil
	case errors.Is(err, os.ErrNotExist):
		return 0, nil
	default:
		return 0, fmt.Errorf("remove %s: %w", name, err)
	}
}

// CreateFile implements sheets.FolderStore.
func (f *Folders) CreateFile(_ context.Context, folder sheets.Folder, name, _ string, content []byte) (sheets.File, error) {
	if err := checkName(name); err != nil {
		return sheets.File{}, err
	}
	if st, err := os.Stat(folder.ID); err != nil || !st.IsDir() {
		return sheets.File{}, fmt.Errorf("%w: %s", sheets.ErrFolderNotFound, folder.ID)
	}
	path := filepath.Join(folder.ID, name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return sheets.File{}, fmt.Errorf("write %s: %w", path, err)
	}
	return sheets.File{ID: path, Name: name, URL: fileURL(path), Size: len(content)}, nil
}

func checkName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("invalid file or folder name %q", name)
	}
	return nil
}

func fileURL(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String()
}
