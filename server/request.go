package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/poiesic/embedsync/core"
)

var (
	errMalformedBody = errors.New("request body must be a JSON object")
	errInvalidID     = errors.New("id must be a non-empty string or an integer")
	errNoContent     = errors.New("content field is required")
)

// decodeUpdateRequest reads {"id": ..., "content": ...} from body.
// The content value is returned as decoded so the validator can classify it.
// Every error wraps core.ErrInput.
func decodeUpdateRequest(body io.Reader) (core.ID, any, error) {
	dec := json.NewDecoder(body)
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return "", nil, fmt.Errorf("%w: %w: %w", core.ErrInput, errMalformedBody, err)
	}
	if fields == nil {
		return "", nil, fmt.Errorf("%w: %w", core.ErrInput, errMalformedBody)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return "", nil, fmt.Errorf("%w: %w: trailing data", core.ErrInput, errMalformedBody)
	}

	id, err := parseID(fields["id"])
	if err != nil {
		return "", nil, err
	}

	content, ok := fields["content"]
	if !ok {
		return "", nil, fmt.Errorf("%w: %w", core.ErrInput, errNoContent)
	}
	return id, content, nil
}

func parseID(raw any) (core.ID, error) {
	switch v := raw.(type) {
	case nil:
		return "", fmt.Errorf("%w: %w", core.ErrInput, core.ErrMissingID)
	case string:
		id := strings.TrimSpace(v)
		if id == "" {
			return "", fmt.Errorf("%w: %w", core.ErrInput, core.ErrMissingID)
		}
		return core.ID(id), nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return "", fmt.Errorf("%w: %w", core.ErrInput, errInvalidID)
		}
		return core.IDFromInt(n), nil
	default:
		return "", fmt.Errorf("%w: %w", core.ErrInput, errInvalidID)
	}
}
