package stories

import (
	"github.com/goliatone/go-errors"
)

const (
	TextCodeStoryNotFound = "STORY_NOT_FOUND"
	TextCodeInvalidStatus = "INVALID_STORY_STATUS"
)

// ErrStoryNotFound is returned when a story id does not resolve.
var ErrStoryNotFound = errors.New("story not found", errors.CategoryNotFound).
	WithTextCode(TextCodeStoryNotFound).
	WithCode(errors.CodeNotFound)

// ErrInvalidStatus rejects status values outside the workflow enum.
var ErrInvalidStatus = errors.New("unknown story status", errors.CategoryBadInput).
	WithTextCode(TextCodeInvalidStatus).
	WithCode(errors.CodeBadRequest)
