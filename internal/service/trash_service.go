package service

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"clientvault/internal/model"
	"clientvault/internal/storage"
	"clientvault/internal/util"
	"clientvault/pkg/apierror"
)

// Every workspace keeps its own trash under a fixed path; nothing is
// ever trashed across workspace boundaries.
var trashRelRoot = path.Join(archiveDir, trashDirName)

const manifestName = ".trash-manifest.json"

// TrashService implements soft delete: entries move into the workspace
// trash root with their original location recorded in a per-trash
// manifest file, so restores work after restarts and partial failures.
type TrashService struct {
	mu sync.Mutex
}

func NewTrashService() *TrashService {
	return &TrashService{}
}

// Trash moves a live entry into the trash root, keeping its basename.
// A same-named entry already in trash gets a timestamp suffix; existing
// trash content is never overwritten.
func (s *TrashService) Trash(ws *storage.Workspace, principal Principal, relPath string, name string, actor model.AuditActor) (model.TrashRecord, error) {
	if err := principal.Authorize(ws.ID(), relPath, OpDelete); err != nil {
		return model.TrashRecord{}, err
	}

	safeName, err := util.SanitizeFilename(name)
	if err != nil {
		return model.TrashRecord{}, err
	}

	originalDir := cleanRelPath(relPath)
	liveRel := path.Join(originalDir, safeName)
	if insideTrash(liveRel) {
		return model.TrashRecord{}, apierror.New("BAD_REQUEST", "entry is already in the trash", liveRel, http.StatusBadRequest)
	}
	if strings.HasPrefix(trashRelRoot+"/", liveRel+"/") {
		// The trash root lives inside this entry; moving it into itself
		// can never succeed.
		return model.TrashRecord{}, apierror.New("BAD_REQUEST", "the archive container cannot be trashed", liveRel, http.StatusBadRequest)
	}

	info, err := ws.Stat(liveRel)
	if err != nil {
		if os.IsNotExist(err) {
			return model.TrashRecord{}, apierror.NotFound("entry not found", liveRel)
		}
		return model.TrashRecord{}, err
	}

	if err := ws.MkdirAll(trashRelRoot, 0o755); err != nil {
		return model.TrashRecord{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	trashName, err := s.availableTrashName(ws, safeName)
	if err != nil {
		return model.TrashRecord{}, err
	}

	trashRel := path.Join(trashRelRoot, trashName)
	if err := ws.Rename(liveRel, trashRel); err != nil {
		return model.TrashRecord{}, fmt.Errorf("move to trash %q: %w", liveRel, err)
	}

	kind := model.KindFile
	if info.IsDir() {
		kind = model.KindDirectory
	}

	record := model.TrashRecord{
		ID:           uuid.NewString(),
		TrashName:    trashName,
		OriginalName: safeName,
		OriginalDir:  originalDir,
		Kind:         kind,
		DeletedAt:    time.Now().UTC().Format(time.RFC3339Nano),
		DeletedBy:    actor,
	}

	manifest, err := s.loadManifest(ws)
	if err == nil {
		manifest.Records[trashName] = record
		err = s.saveManifest(ws, manifest)
	}
	if err != nil {
		// Undo the move rather than leave an untracked trash entry.
		_ = ws.Rename(trashRel, liveRel)
		return model.TrashRecord{}, err
	}

	return record, nil
}

// Restore moves a trash entry back to its recorded original directory,
// recreating that directory if it no longer exists, under its original
// unsuffixed name. An existing entry at the target is a conflict.
func (s *TrashService) Restore(ws *storage.Workspace, principal Principal, trashName string) (model.TrashRecord, error) {
	trimmed := strings.TrimSpace(trashName)
	if trimmed == "" {
		return model.TrashRecord{}, apierror.New("BAD_REQUEST", "trash name is required", "", http.StatusBadRequest)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	manifest, err := s.loadManifest(ws)
	if err != nil {
		return model.TrashRecord{}, err
	}

	record, tracked := manifest.Records[trimmed]
	if !tracked {
		// Entry moved in out-of-band (or manifest written by an older
		// build): fall back to restoring into the workspace root.
		if _, statErr := ws.Stat(path.Join(trashRelRoot, trimmed)); statErr != nil {
			return model.TrashRecord{}, apierror.NotFound("trash entry not found", trimmed)
		}
		record = model.TrashRecord{TrashName: trimmed, OriginalName: trimmed, OriginalDir: ""}
	}

	if err := principal.Authorize(ws.ID(), record.OriginalDir, OpDelete); err != nil {
		return model.TrashRecord{}, err
	}

	targetRel := path.Join(record.OriginalDir, record.OriginalName)
	if _, statErr := ws.Stat(targetRel); statErr == nil {
		return model.TrashRecord{}, apierror.New("CONFLICT", "an entry already exists at the original location", targetRel, http.StatusConflict)
	} else if !os.IsNotExist(statErr) {
		return model.TrashRecord{}, statErr
	}

	if record.OriginalDir != "" {
		if err := ws.MkdirAll(record.OriginalDir, 0o755); err != nil {
			return model.TrashRecord{}, err
		}
	}

	trashRel := path.Join(trashRelRoot, trimmed)
	if err := ws.Rename(trashRel, targetRel); err != nil {
		return model.TrashRecord{}, fmt.Errorf("restore %q: %w", trimmed, err)
	}

	if tracked {
		delete(manifest.Records, trimmed)
		if err := s.saveManifest(ws, manifest); err != nil {
			_ = ws.Rename(targetRel, trashRel)
			return model.TrashRecord{}, err
		}
	}

	return record, nil
}

// ListTrash lists the trash subtree, including folders that were trashed
// whole. The manifest sidecar is hidden; at the trash root each entry's
// record is attached so callers can show the original location.
func (s *TrashService) ListTrash(ws *storage.Workspace, principal Principal, relPath string) (model.TrashListData, error) {
	if err := principal.Authorize(ws.ID(), trashRelRoot, OpRead); err != nil {
		return model.TrashListData{}, err
	}

	cleaned := cleanRelPath(relPath)
	full := path.Join(trashRelRoot, cleaned)
	if err := s.ensureInsideTrashRoot(ws, full); err != nil {
		return model.TrashListData{}, err
	}

	entries, err := ws.ReadDir(full)
	if err != nil {
		if os.IsNotExist(err) {
			if cleaned == "" {
				// Nothing has been trashed yet.
				return model.TrashListData{Client: ws.ID(), CurrentPath: "", Entries: []model.Entry{}}, nil
			}
			return model.TrashListData{}, apierror.NotFound("trash path not found", cleaned)
		}
		return model.TrashListData{}, err
	}

	items := make([]model.Entry, 0, len(entries))
	for _, entry := range entries {
		if cleaned == "" && entry.Name() == manifestName {
			continue
		}

		info, infoErr := entry.Info()
		if infoErr != nil {
			continue
		}

		item := model.Entry{Name: entry.Name(), ModifiedAt: info.ModTime().UTC()}
		if entry.IsDir() {
			item.Kind = model.KindDirectory
		} else {
			item.Kind = model.KindFile
			item.Size = info.Size()
		}
		items = append(items, item)
	}

	sortEntries(items)

	data := model.TrashListData{Client: ws.ID(), CurrentPath: cleaned, Entries: items}
	if cleaned == "" {
		s.mu.Lock()
		manifest, loadErr := s.loadManifest(ws)
		s.mu.Unlock()
		if loadErr == nil {
			data.Records = manifest.Records
		}
	}

	return data, nil
}

// PurgeOne permanently removes one trash entry, recursively for
// directories. The resolved target must still live inside the trash
// root; workspace containment alone is not trusted here.
func (s *TrashService) PurgeOne(ws *storage.Workspace, principal Principal, relPath string, name string) error {
	if err := principal.Authorize(ws.ID(), trashRelRoot, OpDelete); err != nil {
		return err
	}

	safeName, err := util.SanitizeFilename(name)
	if err != nil {
		return err
	}

	targetRel := path.Join(trashRelRoot, cleanRelPath(relPath), safeName)
	if err := s.ensureInsideTrashRoot(ws, targetRel); err != nil {
		return err
	}

	if _, statErr := ws.Stat(targetRel); statErr != nil {
		if os.IsNotExist(statErr) {
			return apierror.NotFound("trash entry not found", safeName)
		}
		return statErr
	}

	if err := ws.RemoveAll(targetRel); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pruneManifest(ws)
}

// EmptyTrash removes everything under the given trash-relative path, or
// the whole trash when the path is empty. Irreversible.
func (s *TrashService) EmptyTrash(ws *storage.Workspace, principal Principal, relPath string) (int, error) {
	if err := principal.Authorize(ws.ID(), trashRelRoot, OpDelete); err != nil {
		return 0, err
	}

	cleaned := cleanRelPath(relPath)
	baseRel := path.Join(trashRelRoot, cleaned)
	if err := s.ensureInsideTrashRoot(ws, baseRel); err != nil {
		return 0, err
	}

	entries, err := ws.ReadDir(baseRel)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	count := 0
	for _, entry := range entries {
		if cleaned == "" && entry.Name() == manifestName {
			continue
		}

		if err := ws.RemoveAll(path.Join(baseRel, entry.Name())); err != nil {
			return count, err
		}
		count++
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return count, s.pruneManifest(ws)
}

func (s *TrashService) availableTrashName(ws *storage.Workspace, name string) (string, error) {
	candidate := name
	for attempt := 0; ; attempt++ {
		_, err := ws.Stat(path.Join(trashRelRoot, candidate))
		if os.IsNotExist(err) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}

		stamp := time.Now().UTC().Format("20060102-150405")
		if attempt == 0 {
			candidate = fmt.Sprintf("%s.%s", name, stamp)
		} else {
			candidate = fmt.Sprintf("%s.%s-%d", name, stamp, attempt+1)
		}
	}
}

// ensureInsideTrashRoot re-checks containment against the trash root
// specifically, beyond the workspace-level guarantee of the validator.
func (s *TrashService) ensureInsideTrashRoot(ws *storage.Workspace, targetRel string) error {
	trashAbs, err := ws.Resolve(trashRelRoot)
	if err != nil {
		return err
	}

	targetAbs, err := ws.Resolve(targetRel)
	if err != nil {
		return err
	}

	if targetAbs != trashAbs && !strings.HasPrefix(targetAbs, trashAbs+string(filepath.Separator)) {
		return apierror.New("PATH_TRAVERSAL", "resolved path is outside the trash root", targetRel, http.StatusForbidden)
	}

	return nil
}

// pruneManifest drops records whose trash entry no longer exists on
// disk. Called with the manifest mutex held.
func (s *TrashService) pruneManifest(ws *storage.Workspace) error {
	manifest, err := s.loadManifest(ws)
	if err != nil {
		return err
	}

	changed := false
	for trashName := range manifest.Records {
		if _, statErr := ws.Stat(path.Join(trashRelRoot, trashName)); os.IsNotExist(statErr) {
			delete(manifest.Records, trashName)
			changed = true
		}
	}

	if !changed {
		return nil
	}

	return s.saveManifest(ws, manifest)
}

func (s *TrashService) loadManifest(ws *storage.Workspace) (model.TrashManifest, error) {
	manifest := model.TrashManifest{Records: map[string]model.TrashRecord{}}

	file, err := ws.OpenForRead(path.Join(trashRelRoot, manifestName))
	if err != nil {
		if os.IsNotExist(err) {
			return manifest, nil
		}
		return manifest, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return manifest, err
	}
	if len(data) == 0 {
		return manifest, nil
	}

	if err := json.Unmarshal(data, &manifest); err != nil {
		return manifest, fmt.Errorf("parse trash manifest: %w", err)
	}
	if manifest.Records == nil {
		manifest.Records = map[string]model.TrashRecord{}
	}

	return manifest, nil
}

func (s *TrashService) saveManifest(ws *storage.Workspace, manifest model.TrashManifest) error {
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return err
	}

	return ws.WriteFile(path.Join(trashRelRoot, manifestName), data)
}

func insideTrash(relPath string) bool {
	return relPath == trashRelRoot || strings.HasPrefix(relPath, trashRelRoot+"/")
}
