package handlers

import (
	"errors"
	"net/http"

	"caredesk/models"
	"caredesk/utils"

	"github.com/gin-gonic/gin"
)

// writeError maps the calendar error taxonomy onto HTTP status codes and stable error codes.
func writeError(c *gin.Context, message string, err error) {
	var ve *models.ValidationError
	switch {
	case errors.As(err, &ve):
		utils.JSONErrorCode(c, http.StatusBadRequest, "validation_failed", message, ve.Error())
	case errors.Is(err, models.ErrSlotUnavailable):
		utils.JSONErrorCode(c, http.StatusConflict, "slot_unavailable", message, err.Error())
	case errors.Is(err, models.ErrAlreadyRunning):
		utils.JSONErrorCode(c, http.StatusConflict, "already_running", message, err.Error())
	case errors.Is(err, models.ErrNotFound):
		utils.JSONErrorCode(c, http.StatusNotFound, "not_found", message, err.Error())
	case models.IsTransient(err):
		utils.JSONErrorCode(c, http.StatusServiceUnavailable, "store_unavailable", message, err.Error())
	default:
		utils.JSONErrorCode(c, http.StatusInternalServerError, "internal", message, err.Error())
	}
}

func badRequest(c *gin.Context, message string, err error) {
	utils.JSONErrorCode(c, http.StatusBadRequest, "invalid_payload", message, err.Error())
}
