package apierr

import (
	"errors"
	"fmt"
)

// Machine-readable failure codes surfaced by the recommendation core.
const (
	CodeInsufficientProfileData = "insufficient_profile_data"
	CodeEmbeddingUnavailable    = "embedding_unavailable"
	CodeCorpusFetchFailed       = "corpus_fetch_failed"
	CodeInvalidStatus           = "invalid_status"
	CodeRecommendationNotFound  = "recommendation_not_found"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code string) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Code == code
}
