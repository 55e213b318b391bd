package google

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	gdrive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"

	ports "timesheets/internal/sheets"
)

const folderMimeType = "application/vnd.google-apps.folder"

// ResolveFolder implements ports.FolderStore: the first non-trashed
// folder named name under parentID, created when missing.
func (c *Client) ResolveFolder(ctx context.Context, parentID, name string) (ports.Folder, error) {
	q := fmt.Sprintf("mimeType = '%s' and name = %s and %s in parents and trashed = false",
		folderMimeType, quoteQuery(name), quoteQuery(parentID))
	list, err := c.drive.Files.List().
		Q(q).
		Fields("files(id,name,webViewLink)").
		PageSize(1).
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Context(ctx).Do()
	if err != nil {
		return ports.Folder{}, fmt.Errorf("search folder %s: %w", name, err)
	}
	if len(list.Files) > 0 {
		f := toFolder(list.Files[0])
		slog.InfoContext(ctx, "Using existing folder", "url", f.URL)
		return f, nil
	}

	created, err := c.drive.Files.Create(&gdrive.File{
		Name:     name,
		MimeType: folderMimeType,
		Parents:  []string{parentID},
	}).Fields("id,name,webViewLink").SupportsAllDrives(true).Context(ctx).Do()
	if err != nil {
		return ports.Folder{}, fmt.Errorf("create folder %s: %w", name, err)
	}
	f := toFolder(created)
	slog.InfoContext(ctx, "Created folder", "url", f.URL)
	return f, nil
}

// TrashFiles implements ports.FolderStore. Every match is moved to the
// trash, not only the first one.
func (c *Client) TrashFiles(ctx context.Context, folder ports.Folder, name string) (int, error) {
	q := fmt.Sprintf("name = %s and %s in parents and trashed = false", quoteQuery(name), quoteQuery(folder.ID))
	trashed := 0
	err := c.drive.Files.List().
		Q(q).
		Fields("nextPageToken,files(id)").
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Pages(ctx, func(page *gdrive.FileList) error {
			for _, f := range page.Files {
				_, err := c.drive.Files.Update(f.Id, &gdrive.File{Trashed: true}).
					SupportsAllDrives(true).Context(ctx).Do()
				if err != nil {
					return fmt.Errorf("trash %s (%s): %w", name, f.Id, err)
				}
				trashed++
			}
			return nil
		})
	return trashed, err
}

// CreateFile implements ports.FolderStore.
func (c *Client) CreateFile(ctx context.Context, folder ports.Folder, name, mimeType string, content []byte) (ports.File, error) {
	created, err := c.drive.Files.Create(&gdrive.File{
		Name:     name,
		MimeType: mimeType,
		Parents:  []string{folder.ID},
	}).
		Media(bytes.NewReader(content), googleapi.ContentType(mimeType)).
		Fields("id,name,webViewLink").
		SupportsAllDrives(true).
		Context(ctx).Do()
	if err != nil {
		return ports.File{}, fmt.Errorf("upload %s: %w", name, err)
	}
	return ports.File{
		ID:   created.Id,
		Name: created.Name,
		URL:  created.WebViewLink,
		Size: len(content),
	}, nil
}

func toFolder(f *gdrive.File) ports.Folder {
	url := f.WebViewLink
	if url == "" {
		url = "https://drive.google.com/drive/folders/" + f.Id
	}
	return ports.Folder{ID: f.Id, Name: f.Name, URL: url}
}
