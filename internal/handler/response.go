package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  "error",
		Message: message,
	}
}

// RespondError writes err with the HTTP status its error code maps to;
// anything without a StatusCode is treated as internal.
func RespondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	if appErr, ok := err.(interface{ StatusCode() int }); ok {
		status = appErr.StatusCode()
	}
	c.JSON(status, NewErrorResponse(err.Error()))
}
