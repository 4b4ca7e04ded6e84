package model

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Email      string      `json:"email"`
	Password   string      `json:"password"`
	Role       string      `json:"role"`
	Client     string      `json:"client,omitempty"`
	Capability *Capability `json:"capability,omitempty"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type CreateClientRequest struct {
	Name  string       `json:"name"`
	Type  string       `json:"type"`
	Flags ServiceFlags `json:"flags"`
}

type UpdateStructureRequest struct {
	Type  string       `json:"type"`
	Flags ServiceFlags `json:"flags"`
}

type AddTaxYearRequest struct {
	Year string `json:"year"`
}

type CreateDirectoryRequest struct {
	Path string `json:"path"`
	Name string `json:"name"`
}

type WriteTextRequest struct {
	Path     string `json:"path"`
	FileName string `json:"file_name"`
	Text     string `json:"text"`
}

type TrashRequest struct {
	Path string `json:"path"`
	Name string `json:"name"`
}

type RestoreRequest struct {
	TrashName string `json:"trash_name"`
}
