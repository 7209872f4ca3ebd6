package httpadapter

import (
	"net/http"

	"github.com/kirillkom/hirenet-interview/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrForbidden):
		return http.StatusForbidden
	case domain.IsKind(err, domain.ErrSessionNotFound),
		domain.IsKind(err, domain.ErrAnswerNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrDuplicateAnswer):
		return http.StatusConflict
	case domain.IsKind(err, domain.ErrAnswersPending):
		return http.StatusConflict
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
