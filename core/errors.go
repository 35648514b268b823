package core

import "errors"

var (
	// ErrInput indicates the caller supplied unusable input.
	ErrInput = errors.New("invalid input")

	// ErrUpstreamProvider indicates the embedding provider call failed.
	ErrUpstreamProvider = errors.New("embedding provider error")

	// ErrPersistence indicates the record store read or write failed.
	ErrPersistence = errors.New("persistence error")

	// ErrConfiguration indicates required credentials or endpoints are missing.
	ErrConfiguration = errors.New("configuration error")

	// ErrMissingContent indicates the content field is absent.
	ErrMissingContent = errors.New("content is missing")

	// ErrWrongContentType indicates the content field is not text.
	ErrWrongContentType = errors.New("content is not text")

	// ErrBlankContent indicates the content is empty or whitespace only.
	ErrBlankContent = errors.New("content is blank")

	// ErrMissingID indicates a record identifier was not supplied.
	ErrMissingID = errors.New("record id is required")
)

// Category is the machine-readable class of an error.
type Category string

const (
	CategoryNone          Category = ""
	CategoryInput         Category = "bad_input"
	CategoryUpstream      Category = "upstream_provider_failure"
	CategoryPersistence   Category = "persistence_failure"
	CategoryConfiguration Category = "configuration"
	CategoryInternal      Category = "internal"
)

// CategoryOf classifies err against the error taxonomy.
func CategoryOf(err error) Category {
	switch {
	case err == nil:
		return CategoryNone
	case errors.Is(err, ErrInput):
		return CategoryInput
	case errors.Is(err, ErrUpstreamProvider):
		return CategoryUpstream
	case errors.Is(err, ErrPersistence):
		return CategoryPersistence
	case errors.Is(err, ErrConfiguration):
		return CategoryConfiguration
	default:
		return CategoryInternal
	}
}
