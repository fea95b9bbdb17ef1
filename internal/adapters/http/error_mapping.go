package httpadapter

import (
	"net/http"

	"github.com/kirillkom/bdchat/internal/core/domain"
)

const (
	msgNoMessage      = "No message provided"
	msgNotInitialized = "Chat service is not properly initialized. Please try again later."
	msgUpstream       = "Unable to connect to chat service. Please try again later."
	msgProcessing     = "An error occurred while processing your request"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrNotInitialized):
		return http.StatusServiceUnavailable
	case domain.IsKind(err, domain.ErrUpstream):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// mapErrorToUserMessage hides error detail behind the fixed client-facing texts.
func mapErrorToUserMessage(err error) string {
	switch {
	case domain.IsKind(err, domain.ErrNotInitialized):
		return msgNotInitialized
	case domain.IsKind(err, domain.ErrInvalidInput):
		return msgNoMessage
	case domain.IsKind(err, domain.ErrUpstream):
		return msgUpstream
	default:
		return msgProcessing
	}
}
