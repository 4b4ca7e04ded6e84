package model

import "time"

// Entry is one file or directory as seen through a workspace listing.
type Entry struct {
	Name       string    `json:"name"`
	Kind       string    `json:"kind"` // "directory" or "file"
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modified_at"`
}

const (
	KindDirectory = "directory"
	KindFile      = "file"
)

type ListData struct {
	Client      string  `json:"client"`
	CurrentPath string  `json:"current_path"`
	Entries     []Entry `json:"entries"`
}

type UploadData struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Size int64  `json:"size"`
}
