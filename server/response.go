package server

import (
	"errors"
	"net/http"

	"github.com/poiesic/embedsync/core"
	"github.com/poiesic/embedsync/storage"
)

type updateResponse struct {
	Success bool       `json:"success"`
	ID      core.ID    `json:"id,omitempty"`
	Error   *errorBody `json:"error,omitempty"`
}

type errorBody struct {
	Category core.Category `json:"category"`
	Detail   string        `json:"detail"`
}

func successResponse(id core.ID) updateResponse {
	return updateResponse{Success: true, ID: id}
}

func errorResponse(err error) updateResponse {
	return updateResponse{
		Success: false,
		Error: &errorBody{
			Category: core.CategoryOf(err),
			Detail:   err.Error(),
		},
	}
}

// statusFor maps an update error to its HTTP status.
func statusFor(err error) int {
	switch core.CategoryOf(err) {
	case core.CategoryNone:
		return http.StatusOK
	case core.CategoryInput:
		return http.StatusBadRequest
	case core.CategoryUpstream:
		return http.StatusBadGateway
	case core.CategoryPersistence:
		if errors.Is(err, storage.ErrNotFound) {
			return http.StatusNotFound
		}
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
