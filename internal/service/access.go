package service

import (
	"net/http"
	"path"
	"strings"

	"clientvault/internal/model"
	"clientvault/pkg/apierror"
)

// Operation classifies what a caller is about to do with a path, for
// capability checks.
type Operation string

const (
	OpRead      Operation = "read"
	OpUpload    Operation = "upload"
	OpDelete    Operation = "delete"
	OpMkdir     Operation = "mkdir"
	OpWriteText Operation = "write_text"
)

// Principal is the already-authenticated caller. The auth collaborator
// resolves role, workspace binding, and capability; the core only
// checks them. Every core operation takes a Principal explicitly.
type Principal struct {
	Role       string
	Client     string
	Capability *model.Capability
}

func AdminPrincipal() Principal {
	return Principal{Role: model.RoleAdmin}
}

// Authorize decides whether the principal may perform op on the given
// workspace-relative path inside workspaceID. Admins pass everything;
// client principals are pinned to their own workspace and optionally to
// a subset of its top-level folders.
func (p Principal) Authorize(workspaceID string, relPath string, op Operation) error {
	if p.Role == model.RoleAdmin {
		return nil
	}

	if p.Role != model.RoleClient || p.Client == "" {
		return apierror.New("FORBIDDEN", "principal has no workspace access", "", http.StatusForbidden)
	}

	if p.Client != workspaceID {
		return apierror.New("FORBIDDEN", "principal is not bound to this workspace", workspaceID, http.StatusForbidden)
	}

	if p.Capability == nil {
		return nil
	}

	rootFolder := topLevelFolder(relPath)

	if len(p.Capability.AllowedRootFolders) > 0 {
		if rootFolder == "" {
			// The workspace root itself: browsing is fine, mutating is not.
			if op == OpRead {
				return nil
			}
			return apierror.New("FORBIDDEN", "operation not allowed at workspace root", string(op), http.StatusForbidden)
		}

		if !containsFold(p.Capability.AllowedRootFolders, rootFolder) {
			return apierror.New("FORBIDDEN", "folder is not accessible to this principal", rootFolder, http.StatusForbidden)
		}
	}

	if op == OpRead {
		return nil
	}

	if p.Capability.PerFolderPermissions == nil {
		return nil
	}

	perms, ok := lookupFold(p.Capability.PerFolderPermissions, rootFolder)
	if !ok {
		return apierror.New("FORBIDDEN", "no permissions granted for this folder", rootFolder, http.StatusForbidden)
	}

	allowed := false
	switch op {
	case OpUpload:
		allowed = perms.Upload
	case OpDelete:
		allowed = perms.Delete
	case OpMkdir:
		allowed = perms.Mkdir
	case OpWriteText:
		allowed = perms.WriteText
	}

	if !allowed {
		return apierror.New("FORBIDDEN", "operation not permitted in this folder", string(op), http.StatusForbidden)
	}

	return nil
}

// topLevelFolder returns the first segment of a workspace-relative path,
// or "" for the workspace root.
func topLevelFolder(relPath string) string {
	cleaned := path.Clean(strings.Trim(strings.ReplaceAll(relPath, `\`, "/"), "/"))
	if cleaned == "." || cleaned == "" {
		return ""
	}

	if idx := strings.Index(cleaned, "/"); idx >= 0 {
		return cleaned[:idx]
	}

	return cleaned
}

func containsFold(values []string, target string) bool {
	for _, v := range values {
		if strings.EqualFold(strings.TrimSpace(v), target) {
			return true
		}
	}

	return false
}

func lookupFold(perms map[string]model.FolderPermissions, folder string) (model.FolderPermissions, bool) {
	for name, p := range perms {
		if strings.EqualFold(strings.TrimSpace(name), folder) {
			return p, true
		}
	}

	return model.FolderPermissions{}, false
}
