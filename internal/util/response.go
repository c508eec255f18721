package util

import (
	"enem_quiz_backend/pkg/logger"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Fixed client-facing messages. Internal detail only goes to the log.
const (
	MsgUnauthorized  = "Não autorizado"
	MsgMissingFields = "Campos obrigatórios ausentes"
	MsgInternalError = "Erro interno do servidor"
	MsgNotFound      = "Recurso não encontrado"
	MsgTooMany       = "Muitas tentativas, solicite um novo código"
)

type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: "success",
		Data:    data,
	})
}

func Error(c *gin.Context, code int, message string) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
	})
}

func Unauthorized(c *gin.Context) {
	Error(c, http.StatusUnauthorized, MsgUnauthorized)
}

func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

func MissingFields(c *gin.Context) {
	BadRequest(c, MsgMissingFields)
}

func NotFound(c *gin.Context) {
	Error(c, http.StatusNotFound, MsgNotFound)
}

func TooManyRequests(c *gin.Context) {
	Error(c, http.StatusTooManyRequests, MsgTooMany)
}

func InternalServerError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, MsgInternalError)
}

func LogInternalError(c *gin.Context, err error) {
	logger.Log.Error("Internal server error",
		zap.String("path", c.FullPath()),
		zap.Error(err))
	InternalServerError(c)
}
