package model

// TrashRecord tracks one soft-deleted entry inside a workspace trash root.
// OriginalDir is the workspace-relative directory the entry lived in, so a
// restore can recreate it even after the directory itself was removed.
type TrashRecord struct {
	ID           string     `json:"id"`
	TrashName    string     `json:"trash_name"`
	OriginalName string     `json:"original_name"`
	OriginalDir  string     `json:"original_dir"`
	Kind         string     `json:"kind"`
	DeletedAt    string     `json:"deleted_at"`
	DeletedBy    AuditActor `json:"deleted_by,omitempty"`
}

// TrashListData is a trash-subtree listing; Records is populated only
// at the trash root, keyed by trash name.
type TrashListData struct {
	Client      string                 `json:"client"`
	CurrentPath string                 `json:"current_path"`
	Entries     []Entry                `json:"entries"`
	Records     map[string]TrashRecord `json:"records,omitempty"`
}

// TrashManifest is the sidecar persisted in each workspace trash root.
// The filesystem stays the only database; this file just makes the
// original-location mapping explicit and restart-safe.
type TrashManifest struct {
	Records map[string]TrashRecord `json:"records"` // keyed by TrashName
}
