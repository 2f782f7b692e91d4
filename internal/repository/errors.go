package repository

import (
	"errors"

	"github.com/byronguina/tasktracker/internal/schedule"
)

var (
	// ErrInvalidID is returned when a caller-supplied id is not usable,
	// such as a non-positive or already taken epic id.
	ErrInvalidID = errors.New("invalid id")

	// ErrInvalidItem is returned when an item fails field validation.
	ErrInvalidItem = errors.New("invalid item")

	// ErrNotFound means no item of the requested kind has the id.
	ErrNotFound = errors.New("item not found")

	// ErrEpicNotFound is returned when a subtask names an epic that does not
	// exist. The subtask is not created.
	ErrEpicNotFound = errors.New("epic not found")

	// ErrPersistence wraps store failures. The in-memory change that
	// triggered the save has already been applied.
	ErrPersistence = errors.New("failed to persist snapshot")

	// ErrConflict matches scheduling conflicts; use errors.As with
	// *schedule.ConflictError to get both items.
	ErrConflict = schedule.ErrConflict
)
