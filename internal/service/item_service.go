package service

import (
	"net/http"
	"os"
	"path"
	"sort"
	"strings"

	"clientvault/internal/model"
	"clientvault/internal/storage"
	"clientvault/internal/util"
	"clientvault/pkg/apierror"
)

// ItemService performs the file and folder operations inside one
// workspace. Every target goes through the workspace path validator, and
// every call checks the principal's capability first.
type ItemService struct {
	maxUploadSize int64
}

func NewItemService(maxUploadSize int64) *ItemService {
	return &ItemService{maxUploadSize: maxUploadSize}
}

// List returns the entries of a workspace directory, directories first,
// then lexicographic by name.
func (s *ItemService) List(ws *storage.Workspace, principal Principal, relPath string) (model.ListData, error) {
	if err := principal.Authorize(ws.ID(), relPath, OpRead); err != nil {
		return model.ListData{}, err
	}

	entries, err := ws.ReadDir(relPath)
	if err != nil {
		if os.IsNotExist(err) {
			return model.ListData{}, apierror.NotFound("directory not found", relPath)
		}
		return model.ListData{}, err
	}

	items := make([]model.Entry, 0, len(entries))
	for _, entry := range entries {
		info, infoErr := entry.Info()
		if infoErr != nil {
			continue
		}

		item := model.Entry{
			Name:       entry.Name(),
			ModifiedAt: info.ModTime().UTC(),
		}
		if entry.IsDir() {
			item.Kind = model.KindDirectory
		} else {
			item.Kind = model.KindFile
			item.Size = info.Size()
		}

		items = append(items, item)
	}

	sortEntries(items)

	return model.ListData{
		Client:      ws.ID(),
		CurrentPath: cleanRelPath(relPath),
		Entries:     items,
	}, nil
}

// Upload writes one file, overwriting any same-named file; there is no
// versioning. Oversized payloads fail before anything touches disk.
func (s *ItemService) Upload(ws *storage.Workspace, principal Principal, relPath string, fileName string, data []byte) (model.UploadData, error) {
	if err := principal.Authorize(ws.ID(), relPath, OpUpload); err != nil {
		return model.UploadData{}, err
	}

	safeName, err := util.SanitizeFilename(fileName)
	if err != nil {
		return model.UploadData{}, err
	}

	if s.maxUploadSize > 0 && int64(len(data)) > s.maxUploadSize {
		return model.UploadData{}, apierror.New("PAYLOAD_TOO_LARGE", "file exceeds the maximum upload size", safeName, http.StatusRequestEntityTooLarge)
	}

	target := path.Join(cleanRelPath(relPath), safeName)
	if err := ws.WriteFile(target, data); err != nil {
		return model.UploadData{}, err
	}

	return model.UploadData{Name: safeName, Path: target, Size: int64(len(data))}, nil
}

// Download opens a file for streaming. The caller closes the file.
func (s *ItemService) Download(ws *storage.Workspace, principal Principal, relPath string, fileName string) (*os.File, os.FileInfo, error) {
	if err := principal.Authorize(ws.ID(), relPath, OpRead); err != nil {
		return nil, nil, err
	}

	safeName, err := util.SanitizeFilename(fileName)
	if err != nil {
		return nil, nil, err
	}

	target := path.Join(cleanRelPath(relPath), safeName)
	info, err := ws.Stat(target)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, apierror.NotFound("file not found", target)
		}
		return nil, nil, err
	}

	if info.IsDir() {
		return nil, nil, apierror.New("NOT_A_FILE", "path points to a directory", target, http.StatusBadRequest)
	}

	file, err := ws.OpenForRead(target)
	if err != nil {
		return nil, nil, err
	}

	return file, info, nil
}

// Mkdir creates a directory; creating one that already exists is not an
// error.
func (s *ItemService) Mkdir(ws *storage.Workspace, principal Principal, relPath string, name string) (string, error) {
	if err := principal.Authorize(ws.ID(), relPath, OpMkdir); err != nil {
		return "", err
	}

	safeName, err := util.SanitizeFilename(name)
	if err != nil {
		return "", err
	}

	target := path.Join(cleanRelPath(relPath), safeName)
	if err := ws.MkdirAll(target, 0o755); err != nil {
		return "", err
	}

	return target, nil
}

// WriteText writes a UTF-8 text file, overwriting any existing one.
func (s *ItemService) WriteText(ws *storage.Workspace, principal Principal, relPath string, fileName string, text string) (model.UploadData, error) {
	if err := principal.Authorize(ws.ID(), relPath, OpWriteText); err != nil {
		return model.UploadData{}, err
	}

	safeName, err := util.SanitizeFilename(fileName)
	if err != nil {
		return model.UploadData{}, err
	}

	target := path.Join(cleanRelPath(relPath), safeName)
	if err := ws.WriteFile(target, []byte(text)); err != nil {
		return model.UploadData{}, err
	}

	return model.UploadData{Name: safeName, Path: target, Size: int64(len(text))}, nil
}

// DeleteHard removes one file permanently. Directories are refused;
// user-facing deletion goes through the trash subsystem instead.
func (s *ItemService) DeleteHard(ws *storage.Workspace, principal Principal, relPath string, fileName string) error {
	if err := principal.Authorize(ws.ID(), relPath, OpDelete); err != nil {
		return err
	}

	safeName, err := util.SanitizeFilename(fileName)
	if err != nil {
		return err
	}

	target := path.Join(cleanRelPath(relPath), safeName)
	info, err := ws.Stat(target)
	if err != nil {
		if os.IsNotExist(err) {
			return apierror.NotFound("file not found", target)
		}
		return err
	}

	if info.IsDir() {
		return apierror.New("NOT_A_FILE", "refusing to hard-delete a directory", target, http.StatusBadRequest)
	}

	return ws.Remove(target)
}

func sortEntries(items []model.Entry) {
	sort.SliceStable(items, func(i int, j int) bool {
		if items[i].Kind != items[j].Kind {
			return items[i].Kind == model.KindDirectory
		}
		return strings.ToLower(items[i].Name) < strings.ToLower(items[j].Name)
	})
}

// cleanRelPath normalizes a workspace-relative path to forward slashes
// without leading or trailing separators; "" means the workspace root.
func cleanRelPath(relPath string) string {
	cleaned := path.Clean(strings.Trim(strings.ReplaceAll(strings.TrimSpace(relPath), `\`, "/"), "/"))
	if cleaned == "." {
		return ""
	}

	return cleaned
}
