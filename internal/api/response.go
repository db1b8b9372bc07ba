package api

import (
	"net/http"

	"cryptovest/internal/apperr"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, envelope{Success: true, Data: data})
}

func created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, envelope{Success: true, Data: data})
}

// invalidBody classifies a request decoding failure, keeping the decoder error as the cause.
func invalidBody(err error) error {
	return &apperr.Error{Kind: apperr.KindValidation, Message: "invalid request body", Err: err}
}

// fail writes err as a failure envelope. Internal errors are logged with their
// cause and answered with a generic message.
func (s *Server) fail(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}
	c.JSON(status, envelope{Success: false, Error: apperr.PublicMessage(err)})
}
