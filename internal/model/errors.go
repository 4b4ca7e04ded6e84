package model

import "errors"

var (
	// Auth related errors
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")

	// Workspace related errors
	ErrWorkspaceNotFound      = errors.New("workspace not found")
	ErrWorkspaceAlreadyExists = errors.New("workspace already exists")

	// Entry related errors
	ErrEntryNotFound = errors.New("entry not found")
	ErrNotAFile      = errors.New("not a file")
	ErrNotADirectory = errors.New("not a directory")
	ErrPathConflict  = errors.New("path conflict")

	// Trash related errors
	ErrTrashEntryNotFound = errors.New("trash entry not found")

	// Generic errors
	ErrInvalidInput = errors.New("invalid input")
)
