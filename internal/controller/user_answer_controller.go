package controller

import (
	"enem_quiz_backend/internal/model"
	"enem_quiz_backend/internal/service"
	"enem_quiz_backend/internal/util"
	"errors"

	"github.com/gin-gonic/gin"
)

type UserAnswerController struct {
	Service *service.UserAnswerService
}

func NewUserAnswerController(svc *service.UserAnswerService) *UserAnswerController {
	return &UserAnswerController{Service: svc}
}

// Save godoc
// @Summary Salvar resposta
// @Description Cria ou sobrescreve a resposta do usuário para uma questão
// @Tags Respostas
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body model.AnswerInput true "questionId, answerIndex, isCorrect"
// @Success 200 {object} util.Response{data=model.UserAnswer}
// @Failure 400 {object} util.Response
// @Failure 401 {object} util.Response
// @Failure 500 {object} util.Response
// @Router /user-answers [post]
func (c *UserAnswerController) Save(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var in model.AnswerInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		util.MissingFields(ctx)
		return
	}

	rec, err := c.Service.Save(ctx.Request.Context(), claims.UserID, in)
	switch {
	case errors.Is(err, util.ErrMissingFields):
		util.MissingFields(ctx)
	case errors.Is(err, util.ErrUnauthorized):
		util.Unauthorized(ctx)
	case err != nil:
		util.LogInternalError(ctx, err)
	default:
		util.Success(ctx, rec)
	}
}

// List godoc
// @Summary Listar respostas
// @Description Todas as respostas do usuário, indexadas pelo id da questão
// @Tags Respostas
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=answers.Answers}
// @Failure 401 {object} util.Response
// @Failure 500 {object} util.Response
// @Router /user-answers [get]
func (c *UserAnswerController) List(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	all, err := c.Service.ListMap(ctx.Request.Context(), claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, all)
}

// Sync godoc
// @Summary Importar respostas locais
// @Description Importa respostas gravadas sem sessão; só sobrescreve quando a local é mais recente
// @Tags Respostas
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body model.SyncInput true "respostas locais"
// @Success 200 {object} util.Response{data=answers.SyncResult}
// @Failure 400 {object} util.Response
// @Failure 401 {object} util.Response
// @Failure 500 {object} util.Response
// @Router /user-answers/sync [post]
func (c *UserAnswerController) Sync(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var in model.SyncInput
	if err := ctx.ShouldBindJSON(&in); err != nil || in.Answers == nil {
		util.MissingFields(ctx)
		return
	}

	res, err := c.Service.Sync(ctx.Request.Context(), claims.UserID, in.Answers)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, res)
}
