package controller

import (
	"enem_quiz_backend/internal/service"
	"enem_quiz_backend/internal/util"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type AuthController struct {
	AuthService *service.AuthService
}

func NewAuthController(authService *service.AuthService) *AuthController {
	return &AuthController{AuthService: authService}
}

// swagger:model SendOTPRequest
type SendOTPRequest struct {
	Email string `json:"email" binding:"required"`
}

// swagger:model VerifyOTPRequest
type VerifyOTPRequest struct {
	Email string `json:"email" binding:"required"`
	OTP   string `json:"otp" binding:"required"`
}

// SendOTP godoc
// @Summary Enviar código de acesso
// @Description Envia um código de uso único para o e-mail informado
// @Tags Autenticação
// @Accept json
// @Produce json
// @Param body body SendOTPRequest true "e-mail"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response
// @Failure 429 {object} util.Response
// @Router /auth/otp/send [post]
func (c *AuthController) SendOTP(ctx *gin.Context) {
	var req SendOTPRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.MissingFields(ctx)
		return
	}

	err := c.AuthService.SendOTP(ctx.Request.Context(), req.Email)
	switch {
	case errors.Is(err, util.ErrInvalidEmail):
		util.BadRequest(ctx, "E-mail inválido")
	case err != nil:
		util.LogInternalError(ctx, err)
	default:
		util.Success(ctx, gin.H{"sent": true})
	}
}

// VerifyOTP godoc
// @Summary Entrar com código
// @Description Confere o código e devolve o token de sessão
// @Tags Autenticação
// @Accept json
// @Produce json
// @Param body body VerifyOTPRequest true "e-mail e código"
// @Success 200 {object} util.Response{data=service.LoginResult}
// @Failure 400 {object} util.Response
// @Failure 401 {object} util.Response
// @Failure 429 {object} util.Response
// @Router /auth/otp/verify [post]
func (c *AuthController) VerifyOTP(ctx *gin.Context) {
	var req VerifyOTPRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.MissingFields(ctx)
		return
	}

	res, err := c.AuthService.VerifyOTP(ctx.Request.Context(), req.Email, req.OTP)
	switch {
	case errors.Is(err, util.ErrInvalidEmail):
		util.BadRequest(ctx, "E-mail inválido")
	case errors.Is(err, util.ErrMissingFields):
		util.MissingFields(ctx)
	case errors.Is(err, util.ErrInvalidOTP):
		util.Error(ctx, http.StatusUnauthorized, "Código inválido ou expirado")
	case errors.Is(err, util.ErrTooManyAttempts):
		util.TooManyRequests(ctx)
	case err != nil:
		util.LogInternalError(ctx, err)
	default:
		util.Success(ctx, res)
	}
}

// Session godoc
// @Summary Sessão atual
// @Tags Autenticação
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=answers.Session}
// @Failure 401 {object} util.Response
// @Router /auth/session [get]
func (c *AuthController) Session(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	util.Success(ctx, service.SessionFromClaims(claims))
}

// SignOut godoc
// @Summary Sair
// @Description Revoga o token atual
// @Tags Autenticação
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Failure 401 {object} util.Response
// @Router /auth/sign-out [post]
func (c *AuthController) SignOut(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	if err := c.AuthService.SignOut(ctx.Request.Context(), claims); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"signedOut": true})
}
