package core

import (
	"errors"
	"net/http"
	"strings"
)

const MimeTypeJSON = "application/json"

// Validator covers request-shape checks that run before a handler's own
// logic.
type Validator interface {
	// ContentType checks the request's Content-Type against allowedType.
	// Returns the precomputed response to write on failure.
	ContentType(r *http.Request, allowedType string) (error, jsonResponse)
}

type DefaultValidator struct{}

func NewValidator() Validator {
	return &DefaultValidator{}
}

func (v *DefaultValidator) ContentType(r *http.Request, allowedType string) (error, jsonResponse) {
	errInvalidType := errors.New("invalid content type")
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		return errInvalidType, errorInvalidContentType
	}

	// Content-Type may carry parameters, e.g. "application/json; charset=utf-8".
	mediaType := strings.TrimSpace(strings.Split(contentType, ";")[0])
	if mediaType != allowedType {
		return errInvalidType, errorInvalidContentType
	}
	return nil, jsonResponse{}
}
