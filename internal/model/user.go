package model

import "time"

const (
	RoleAdmin  = "admin"
	RoleClient = "client"
)

// FolderPermissions are the per-top-level-folder capability toggles a
// client principal can carry.
type FolderPermissions struct {
	Upload    bool `json:"upload"`
	Delete    bool `json:"delete"`
	Mkdir     bool `json:"mkdir"`
	WriteText bool `json:"write_text"`
}

// Capability restricts a client principal to a subset of top-level
// folders in its own workspace. An empty AllowedRootFolders list means
// the whole workspace is visible.
type Capability struct {
	AllowedRootFolders   []string                     `json:"allowed_root_folders,omitempty"`
	PerFolderPermissions map[string]FolderPermissions `json:"per_folder_permissions,omitempty"`
}

type User struct {
	ID           string      `json:"id"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"password_hash"`
	Role         string      `json:"role"`
	Client       string      `json:"client,omitempty"`
	Capability   *Capability `json:"capability,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

type AuthClaims struct {
	UserID  string `json:"sub"`
	Email   string `json:"email"`
	Role    string `json:"role"`
	Client  string `json:"client"`
	Type    string `json:"typ"`
	TokenID string `json:"jti"`
}

type AuthUser struct {
	ID     string `json:"id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Client string `json:"client,omitempty"`
}

type TokenPair struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	TokenType    string   `json:"token_type"`
	ExpiresIn    int64    `json:"expires_in"`
	User         AuthUser `json:"user"`
}

// AuditActor identifies who performed a mutating operation.
type AuditActor struct {
	UserID string `json:"user_id,omitempty"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role,omitempty"`
	IP     string `json:"ip,omitempty"`
}
