package controller

import (
	"enem_quiz_backend/internal/service"
	"enem_quiz_backend/internal/util"
	"enem_quiz_backend/pkg/history"
	"errors"

	"github.com/gin-gonic/gin"
)

type HistoryController struct {
	Service *service.HistoryService
}

func NewHistoryController(svc *service.HistoryService) *HistoryController {
	return &HistoryController{Service: svc}
}

func (c *HistoryController) fail(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, history.ErrSessionRequired), errors.Is(err, util.ErrUnauthorized):
		util.Unauthorized(ctx)
	default:
		util.LogInternalError(ctx, err)
	}
}

// List godoc
// @Summary Histórico de respostas
// @Description Questões respondidas com a resposta do usuário, mais recentes primeiro
// @Tags Histórico
// @Produce json
// @Security ApiKeyAuth
// @Param status query string false "all | correct | incorrect"
// @Param discipline query string false "disciplina"
// @Param page query int false "página (1..)"
// @Param pageSize query int false "itens por página"
// @Success 200 {object} util.Response{data=history.Page}
// @Failure 400 {object} util.Response
// @Failure 401 {object} util.Response
// @Router /history [get]
func (c *HistoryController) List(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	status, err := history.ParseStatus(ctx.Query("status"))
	if err != nil {
		util.BadRequest(ctx, "Filtro de status inválido")
		return
	}
	filter := history.Filter{Status: status, Discipline: ctx.Query("discipline")}
	page := util.ParseIntDefault(ctx.Query("page"), 1)
	pageSize := util.ParseIntDefault(ctx.Query("pageSize"), 0)
	if pageSize > 100 {
		pageSize = 100
	}

	res, err := c.Service.List(ctx.Request.Context(), claims.UserID, filter, page, pageSize)
	if err != nil {
		c.fail(ctx, err)
		return
	}
	util.Success(ctx, res)
}

// Stats godoc
// @Summary Desempenho
// @Description Total respondido, acertos e aproveitamento por disciplina
// @Tags Histórico
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=history.Stats}
// @Failure 401 {object} util.Response
// @Router /history/stats [get]
func (c *HistoryController) Stats(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	stats, err := c.Service.Stats(ctx.Request.Context(), claims.UserID)
	if err != nil {
		c.fail(ctx, err)
		return
	}
	util.Success(ctx, stats)
}

// Export godoc
// @Summary Exportar histórico
// @Description Grava o histórico completo em JSON no armazenamento configurado
// @Tags Histórico
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.ExportResult}
// @Failure 401 {object} util.Response
// @Failure 500 {object} util.Response
// @Router /history/export [post]
func (c *HistoryController) Export(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	res, err := c.Service.Export(ctx.Request.Context(), claims.UserID)
	if err != nil {
		c.fail(ctx, err)
		return
	}
	util.Success(ctx, res)
}
