package controller

import (
	"digcomp_backend/internal/util"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// respondError maps service errors onto the JSON envelope. Anything unknown is
// logged and reported as a 500.
func respondError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrUserNotFound),
		errors.Is(err, util.ErrAttemptNotFound),
		errors.Is(err, util.ErrQuestionNotFound):
		util.NotFound(ctx, err.Error())
	case errors.Is(err, util.ErrSessionNotActive):
		util.NotFound(ctx, err.Error())
	case errors.Is(err, util.ErrSessionFinished),
		errors.Is(err, util.ErrAttemptUnfinished):
		util.Conflict(ctx, err.Error())
	case errors.Is(err, util.ErrQuestionMismatch),
		errors.Is(err, util.ErrIncompleteResponse):
		util.BadRequest(ctx, err.Error())
	case errors.Is(err, util.ErrEmptyBank),
		errors.Is(err, util.ErrMailNotConfigured):
		util.Error(ctx, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, util.ErrMailDelivery):
		util.Error(ctx, http.StatusBadGateway, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}
