package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/timmy/captionly/internal/domain"
)

// Client-facing messages for the response envelope.
const (
	MsgInvalidRequest   = "Invalid request data"
	MsgGenerateFailed   = "Failed to generate captions"
	MsgCaptionNotFound  = "Caption not found"
	MsgFetchFailed      = "Failed to fetch captions"
	MsgFetchOneFailed   = "Failed to fetch caption"
	MsgBodyNotJSON      = "Request body must be valid JSON"
	MsgBodyUnreadable   = "Request body could not be parsed"
	MsgImageUnreadable  = "Image could not be read"
	MsgImageBadEncoding = "Image must be valid base64"
)

type envelope struct {
	Success bool                `json:"success"`
	Data    interface{}         `json:"data,omitempty"`
	Message string              `json:"message,omitempty"`
	Errors  []domain.FieldError `json:"errors,omitempty"`
}

func respondOK(c *gin.Context, status int, data interface{}) {
	c.JSON(status, envelope{Success: true, Data: data})
}

func respondError(c *gin.Context, status int, message string, errs []domain.FieldError) {
	c.JSON(status, envelope{Success: false, Message: message, Errors: errs})
}
