package service

import (
	"fmt"
	"os"
	"path"
	"regexp"
	"strconv"

	"clientvault/internal/model"
	"clientvault/internal/storage"
)

// StructureService materializes and prunes the folder skeleton of a
// workspace from its client type and service flags. Apply is idempotent:
// re-running with the same inputs changes nothing, and a failed run can
// simply be retried.
type StructureService struct{}

func NewStructureService() *StructureService {
	return &StructureService{}
}

// Apply brings the workspace tree in line with the given type and flags.
// Disabled service branches are deleted outright, matching the existing
// product behavior; this does not go through the trash subsystem.
func (s *StructureService) Apply(ws *storage.Workspace, clientType model.ClientType, flags model.ServiceFlags, years []string) error {
	flags = flags.Normalize(clientType)

	if err := s.prune(ws, clientType, flags); err != nil {
		return err
	}

	if err := ws.MkdirAll(path.Join(archiveDir, trashDirName), 0o755); err != nil {
		return err
	}

	switch clientType {
	case model.TypeSelfEmployed:
		return s.applySelfEmployed(ws, flags, years)
	case model.TypeLandlord:
		return s.applyLandlord(ws, flags, years)
	case model.TypeLimitedCompany:
		return s.applyLimitedCompany(ws, flags, years)
	default:
		return s.applyOther(ws, flags)
	}
}

func (s *StructureService) prune(ws *storage.Workspace, clientType model.ClientType, flags model.ServiceFlags) error {
	if !flags.Bookkeeping {
		if err := removeIfExists(ws, bookkeepingDir); err != nil {
			return err
		}
	}

	if !flags.Extra {
		if err := removeIfExists(ws, path.Join(otherServicesDir, extraServiceDir)); err != nil {
			return err
		}
		// Drop the container only when the extra service left it empty.
		if resolved, err := ws.Resolve(otherServicesDir); err == nil {
			_ = os.Remove(resolved)
		}
	}

	switch clientType {
	case model.TypeSelfEmployed:
		if !flags.MTD {
			if err := removeIfExists(ws, path.Join(complianceDir, mtdDirName(clientType))); err != nil {
				return err
			}
		}
		if !flags.VAT {
			if err := removeIfExists(ws, path.Join(complianceDir, vatDir)); err != nil {
				return err
			}
		}
		if !flags.PAYE {
			if err := removeIfExists(ws, path.Join(complianceDir, payeDir)); err != nil {
				return err
			}
		}
	case model.TypeLandlord:
		if !flags.MTD {
			if err := removeIfExists(ws, path.Join(complianceDir, mtdDirName(clientType))); err != nil {
				return err
			}
		}
	case model.TypeLimitedCompany:
		if !flags.VAT {
			if err := removeIfExists(ws, path.Join(complianceDir, vatDir)); err != nil {
				return err
			}
		}
		if !flags.PAYE {
			if err := removeIfExists(ws, path.Join(complianceDir, payeDir)); err != nil {
				return err
			}
		}
		if err := s.pruneDirectorFolders(ws, flags.Directors); err != nil {
			return err
		}
	}

	return nil
}

var directorFolderPattern = regexp.MustCompile(`(?i)^Director\s+(\d+)$`)

func (s *StructureService) pruneDirectorFolders(ws *storage.Workspace, keep int) error {
	entries, err := ws.ReadDir(directorsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		match := directorFolderPattern.FindStringSubmatch(entry.Name())
		if match == nil {
			continue
		}

		index, convErr := strconv.Atoi(match[1])
		if convErr != nil {
			continue
		}

		if index > keep {
			if err := ws.RemoveAll(path.Join(directorsDir, entry.Name())); err != nil {
				return err
			}
		}
	}

	return nil
}

func (s *StructureService) applySelfEmployed(ws *storage.Workspace, flags model.ServiceFlags, years []string) error {
	if err := createIdentityPack(ws, proofOfIDDir); err != nil {
		return err
	}

	if flags.Bookkeeping {
		if err := createBookkeeping(ws, model.TypeSelfEmployed, years); err != nil {
			return err
		}
	}

	if err := createYearTree(ws, path.Join(complianceDir, selfAssessmentDir), years, selfAssessmentSubfolders); err != nil {
		return err
	}

	if flags.MTD {
		if err := createYearFolders(ws, path.Join(complianceDir, mtdDirName(model.TypeSelfEmployed)), years); err != nil {
			return err
		}
	}
	if flags.VAT {
		if err := createYearFolders(ws, path.Join(complianceDir, vatDir), years); err != nil {
			return err
		}
	}
	if flags.PAYE {
		if err := createYearFolders(ws, path.Join(complianceDir, payeDir), years); err != nil {
			return err
		}
	}

	if flags.Extra {
		return createExtraService(ws)
	}

	return nil
}

func (s *StructureService) applyLandlord(ws *storage.Workspace, flags model.ServiceFlags, years []string) error {
	if err := createIdentityPack(ws, proofOfIDDir); err != nil {
		return err
	}

	if flags.Bookkeeping {
		if err := createBookkeeping(ws, model.TypeLandlord, years); err != nil {
			return err
		}
	}

	if err := createYearTree(ws, path.Join(complianceDir, selfAssessmentDir), years, selfAssessmentSubfolders); err != nil {
		return err
	}

	if err := createYearTree(ws, path.Join(complianceDir, propertyIncomeDir), years, propertySubfolders); err != nil {
		return err
	}

	if flags.MTD {
		if err := createYearFolders(ws, path.Join(complianceDir, mtdDirName(model.TypeLandlord)), years); err != nil {
			return err
		}
	}

	if flags.Extra {
		return createExtraService(ws)
	}

	return nil
}

func (s *StructureService) applyLimitedCompany(ws *storage.Workspace, flags model.ServiceFlags, years []string) error {
	for i := 1; i <= flags.Directors; i++ {
		dirName := fmt.Sprintf("Director %02d", i)
		if err := createIdentityPack(ws, path.Join(directorsDir, dirName)); err != nil {
			return err
		}
	}

	if flags.Bookkeeping {
		if err := createBookkeeping(ws, model.TypeLimitedCompany, years); err != nil {
			return err
		}
	}

	if err := createYearTree(ws, path.Join(complianceDir, corporationTaxDir), years, corporationTaxSubfolders); err != nil {
		return err
	}

	if err := createYearTree(ws, path.Join(complianceDir, accountsDir), years, accountsSubfolders); err != nil {
		return err
	}

	if flags.VAT {
		if err := createYearFolders(ws, path.Join(complianceDir, vatDir), years); err != nil {
			return err
		}
	}
	if flags.PAYE {
		if err := createYearFolders(ws, path.Join(complianceDir, payeDir), years); err != nil {
			return err
		}
	}

	if flags.Extra {
		return createExtraService(ws)
	}

	return nil
}

func (s *StructureService) applyOther(ws *storage.Workspace, flags model.ServiceFlags) error {
	if err := createIdentityPack(ws, proofOfIDDir); err != nil {
		return err
	}

	if flags.Extra {
		return createExtraService(ws)
	}

	return nil
}

// ExtendYear adds one tax year's subfolders to every compliance branch
// the workspace already has, leaving other years and branches untouched.
// Safe to re-run.
func (s *StructureService) ExtendYear(ws *storage.Workspace, year string) error {
	branches := []struct {
		root       string
		subfolders []string
	}{
		{path.Join(complianceDir, selfAssessmentDir), selfAssessmentSubfolders},
		{path.Join(complianceDir, propertyIncomeDir), propertySubfolders},
		{path.Join(complianceDir, corporationTaxDir), corporationTaxSubfolders},
		{path.Join(complianceDir, accountsDir), accountsSubfolders},
	}

	for _, branch := range branches {
		info, err := ws.Stat(branch.root)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return err
		}
		if !info.IsDir() {
			continue
		}

		for _, sub := range branch.subfolders {
			if err := ws.MkdirAll(path.Join(branch.root, year, sub), 0o755); err != nil {
				return err
			}
		}
	}

	return nil
}

func createExtraService(ws *storage.Workspace) error {
	for _, sub := range extraServiceSubfolders {
		if err := ws.MkdirAll(path.Join(otherServicesDir, extraServiceDir, sub), 0o755); err != nil {
			return err
		}
	}

	return nil
}

func createIdentityPack(ws *storage.Workspace, root string) error {
	for _, name := range identityPack {
		if err := ws.MkdirAll(path.Join(root, name), 0o755); err != nil {
			return err
		}
	}

	return nil
}

func createBookkeeping(ws *storage.Workspace, clientType model.ClientType, years []string) error {
	for _, sub := range bookkeepingSubfolders[clientType] {
		if err := createYearFolders(ws, path.Join(bookkeepingDir, sub), years); err != nil {
			return err
		}
	}

	return nil
}

func createYearFolders(ws *storage.Workspace, root string, years []string) error {
	if err := ws.MkdirAll(root, 0o755); err != nil {
		return err
	}

	for _, year := range years {
		if err := ws.MkdirAll(path.Join(root, year), 0o755); err != nil {
			return err
		}
	}

	return nil
}

func createYearTree(ws *storage.Workspace, root string, years []string, subfolders []string) error {
	if err := ws.MkdirAll(root, 0o755); err != nil {
		return err
	}

	for _, year := range years {
		for _, sub := range subfolders {
			if err := ws.MkdirAll(path.Join(root, year, sub), 0o755); err != nil {
				return err
			}
		}
	}

	return nil
}

func removeIfExists(ws *storage.Workspace, relPath string) error {
	if _, err := ws.Stat(relPath); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	return ws.RemoveAll(relPath)
}
