package service

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"clientvault/internal/model"
	"clientvault/internal/storage"
	"clientvault/internal/taxyear"
	"clientvault/internal/util"
	"clientvault/pkg/apierror"
)

// RegistryService owns the clients base directory: enumerating
// workspaces, creating new ones, and fanning tax-year additions out to
// every existing workspace.
type RegistryService struct {
	baseAbs   string
	structure *StructureService
	years     *taxyear.Store
}

var reservedClientNames = map[string]struct{}{
	archivedClientsDir: {},
}

func NewRegistryService(clientsRoot string, structure *StructureService, years *taxyear.Store) (*RegistryService, error) {
	baseAbs, err := filepath.Abs(clientsRoot)
	if err != nil {
		return nil, fmt.Errorf("resolve clients root: %w", err)
	}

	if err := os.MkdirAll(baseAbs, 0o755); err != nil {
		return nil, fmt.Errorf("create clients root: %w", err)
	}

	return &RegistryService{baseAbs: baseAbs, structure: structure, years: years}, nil
}

// Create registers a new client workspace and materializes its folder
// skeleton. A sanitized name that already exists is rejected; two
// distinct registrations are never merged into one workspace.
func (s *RegistryService) Create(name string, rawType string, flags model.ServiceFlags) (model.Workspace, error) {
	id, err := util.SanitizeClientName(name)
	if err != nil {
		return model.Workspace{}, err
	}

	if _, reserved := reservedClientNames[id]; reserved {
		return model.Workspace{}, apierror.New("INVALID_CLIENT_NAME", "client name is reserved", id, http.StatusBadRequest)
	}

	clientType, err := model.ParseClientType(rawType)
	if err != nil {
		return model.Workspace{}, apierror.New("BAD_REQUEST", "unknown client type", rawType, http.StatusBadRequest)
	}

	rootPath := filepath.Join(s.baseAbs, id)
	if _, statErr := os.Stat(rootPath); statErr == nil {
		return model.Workspace{}, apierror.AlreadyExists("client already exists", id)
	} else if !os.IsNotExist(statErr) {
		return model.Workspace{}, statErr
	}

	if err := os.MkdirAll(rootPath, 0o755); err != nil {
		return model.Workspace{}, fmt.Errorf("create workspace root %q: %w", id, err)
	}

	ws, err := storage.OpenWorkspace(s.baseAbs, id)
	if err != nil {
		return model.Workspace{}, err
	}

	flags = flags.Normalize(clientType)
	if err := s.structure.Apply(ws, clientType, flags, s.years.Years()); err != nil {
		return model.Workspace{}, err
	}

	if err := writeClientInfo(ws, clientType, flags); err != nil {
		return model.Workspace{}, err
	}

	return model.Workspace{ID: id, Type: clientType, Flags: flags, CreatedAt: time.Now().UTC()}, nil
}

// UpdateStructure re-applies type and flags to an existing workspace.
// Idempotent; disabled branches are deleted, new ones created.
func (s *RegistryService) UpdateStructure(id string, rawType string, flags model.ServiceFlags) (model.Workspace, error) {
	ws, err := s.Workspace(id)
	if err != nil {
		return model.Workspace{}, err
	}

	clientType, err := model.ParseClientType(rawType)
	if err != nil {
		return model.Workspace{}, apierror.New("BAD_REQUEST", "unknown client type", rawType, http.StatusBadRequest)
	}

	flags = flags.Normalize(clientType)
	if err := s.structure.Apply(ws, clientType, flags, s.years.Years()); err != nil {
		return model.Workspace{}, err
	}

	if err := writeClientInfo(ws, clientType, flags); err != nil {
		return model.Workspace{}, err
	}

	return model.Workspace{ID: id, Type: clientType, Flags: flags}, nil
}

// List enumerates workspace IDs, lexicographically, skipping files and
// reserved container directories.
func (s *RegistryService) List() ([]string, error) {
	entries, err := os.ReadDir(s.baseAbs)
	if err != nil {
		return nil, fmt.Errorf("read clients root: %w", err)
	}

	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, reserved := reservedClientNames[entry.Name()]; reserved {
			continue
		}
		ids = append(ids, entry.Name())
	}

	sort.Strings(ids)
	return ids, nil
}

// Workspace opens an existing client workspace by ID. The ID must be a
// plain directory name; anything that sanitizes differently is treated
// as not found rather than resolved.
func (s *RegistryService) Workspace(id string) (*storage.Workspace, error) {
	trimmed := strings.TrimSpace(id)
	sanitized, err := util.SanitizeClientName(trimmed)
	if err != nil || sanitized != trimmed {
		return nil, apierror.NotFound("client not found", id)
	}

	info, err := os.Stat(filepath.Join(s.baseAbs, sanitized))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apierror.NotFound("client not found", id)
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, apierror.NotFound("client not found", id)
	}

	return storage.OpenWorkspace(s.baseAbs, sanitized)
}

// TaxYears returns the current practice-wide year labels.
func (s *RegistryService) TaxYears() []string {
	return s.years.Years()
}

// AddTaxYear registers a new fiscal-year label and extends the existing
// compliance branches of every workspace. The fan-out is not atomic
// across clients: per-client failures are collected and the successful
// clients keep their new folders, since ExtendYear is idempotent and a
// retry completes the rest.
func (s *RegistryService) AddTaxYear(year string) ([]string, error) {
	years, added, err := s.years.Add(year)
	if err != nil {
		return nil, apierror.New("BAD_REQUEST", "invalid tax year", err.Error(), http.StatusBadRequest)
	}
	if !added {
		return years, nil
	}

	ids, err := s.List()
	if err != nil {
		return years, err
	}

	var fanOutErrs []error
	for _, id := range ids {
		ws, openErr := storage.OpenWorkspace(s.baseAbs, id)
		if openErr != nil {
			fanOutErrs = append(fanOutErrs, fmt.Errorf("client %q: %w", id, openErr))
			continue
		}

		if extendErr := s.structure.ExtendYear(ws, strings.TrimSpace(year)); extendErr != nil {
			fanOutErrs = append(fanOutErrs, fmt.Errorf("client %q: %w", id, extendErr))
		}
	}

	return years, errors.Join(fanOutErrs...)
}
