package controller

import (
	"enem_quiz_backend/internal/service"
	"enem_quiz_backend/internal/util"
	"enem_quiz_backend/pkg/enemapi"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

const maxQuestionPage = 50

// ExamController proxies the exam content API. Bodies are the upstream JSON without
// the response envelope, so the same client works against this service and upstream.
type ExamController struct {
	Service *service.ExamService
}

func NewExamController(svc *service.ExamService) *ExamController {
	return &ExamController{Service: svc}
}

func (c *ExamController) fail(ctx *gin.Context, err error) {
	var statusErr *enemapi.StatusError
	switch {
	case errors.Is(err, enemapi.ErrNotFound):
		util.NotFound(ctx)
	case errors.As(err, &statusErr):
		util.Error(ctx, http.StatusBadGateway, "Falha ao consultar as questões")
	default:
		util.LogInternalError(ctx, err)
	}
}

func pathInt(ctx *gin.Context, name string) (int, bool) {
	n, err := strconv.Atoi(ctx.Param(name))
	if err != nil || n <= 0 {
		util.BadRequest(ctx, "Parâmetro inválido: "+name)
		return 0, false
	}
	return n, true
}

// ListExams godoc
// @Summary Listar provas
// @Tags Provas
// @Produce json
// @Success 200 {array} enemapi.Exam
// @Router /exams [get]
func (c *ExamController) ListExams(ctx *gin.Context) {
	exams, err := c.Service.ListExams(ctx.Request.Context())
	if err != nil {
		c.fail(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, exams)
}

// GetExam godoc
// @Summary Detalhes de uma prova
// @Tags Provas
// @Produce json
// @Param year path int true "ano"
// @Success 200 {object} enemapi.Exam
// @Failure 404 {object} util.Response
// @Router /exams/{year} [get]
func (c *ExamController) GetExam(ctx *gin.Context) {
	year, ok := pathInt(ctx, "year")
	if !ok {
		return
	}
	exam, err := c.Service.GetExam(ctx.Request.Context(), year)
	if err != nil {
		c.fail(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, exam)
}

// ListQuestions godoc
// @Summary Questões de uma prova
// @Tags Provas
// @Produce json
// @Param year path int true "ano"
// @Param limit query int false "máximo 50"
// @Param offset query int false "deslocamento"
// @Param discipline query string false "disciplina, ex. matematica"
// @Param language query string false "língua estrangeira, ex. ingles"
// @Success 200 {object} enemapi.QuestionPage
// @Router /exams/{year}/questions [get]
func (c *ExamController) ListQuestions(ctx *gin.Context) {
	year, ok := pathInt(ctx, "year")
	if !ok {
		return
	}
	limit := util.ParseIntDefault(ctx.Query("limit"), 10)
	if limit <= 0 || limit > maxQuestionPage {
		limit = maxQuestionPage
	}
	offset := util.ParseIntDefault(ctx.Query("offset"), 0)
	if offset < 0 {
		offset = 0
	}

	filter := enemapi.QuestionFilter{Discipline: ctx.Query("discipline"), Language: ctx.Query("language")}

	page, err := c.Service.ListQuestions(ctx.Request.Context(), year, limit, offset, filter)
	if err != nil {
		c.fail(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, page)
}

// GetQuestion godoc
// @Summary Uma questão
// @Tags Provas
// @Produce json
// @Param year path int true "ano"
// @Param index path int true "número da questão"
// @Success 200 {object} enemapi.Question
// @Failure 404 {object} util.Response
// @Router /exams/{year}/questions/{index} [get]
func (c *ExamController) GetQuestion(ctx *gin.Context) {
	year, ok := pathInt(ctx, "year")
	if !ok {
		return
	}
	index, ok := pathInt(ctx, "index")
	if !ok {
		return
	}
	q, err := c.Service.GetQuestion(ctx.Request.Context(), year, index)
	if err != nil {
		c.fail(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, q)
}

type BatchRequest struct {
	Indices []int `json:"indices"`
}

// GetQuestionsBatch godoc
// @Summary Várias questões de uma prova
// @Tags Provas
// @Accept json
// @Produce json
// @Param year path int true "ano"
// @Param body body BatchRequest true "índices"
// @Success 200 {array} enemapi.Question
// @Failure 400 {object} util.Response
// @Router /exams/{year}/questions [post]
func (c *ExamController) GetQuestionsBatch(ctx *gin.Context) {
	year, ok := pathInt(ctx, "year")
	if !ok {
		return
	}
	var req BatchRequest
	if err := ctx.ShouldBindJSON(&req); err != nil || len(req.Indices) == 0 {
		util.MissingFields(ctx)
		return
	}
	if len(req.Indices) > maxQuestionPage*4 {
		util.BadRequest(ctx, "Muitas questões em uma única requisição")
		return
	}

	qs, err := c.Service.GetQuestionsBatch(ctx.Request.Context(), year, req.Indices)
	if err != nil {
		c.fail(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, qs)
}
