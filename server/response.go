package server

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/statekit/errors"
)

// DataResponse is the success envelope.
type DataResponse struct {
	Data any `json:"data"`
}

// RespondWithError writes the status and body errors.Response picks for err.
func RespondWithError(c *gin.Context, err error) {
	c.JSON(apperrors.Response(err))
}

func RespondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, DataResponse{Data: data})
}

func RespondAccepted(c *gin.Context, data any) {
	c.JSON(http.StatusAccepted, DataResponse{Data: data})
}

// WriteError is RespondWithError for handlers mounted outside Gin.
func WriteError(w http.ResponseWriter, err error) {
	status, body := apperrors.Response(err)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
