package controller

import (
	"digcomp_backend/internal/model"
	"digcomp_backend/internal/service"
	"digcomp_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type QuestionController struct {
	QuestionService *service.QuestionService
}

func NewQuestionController(questionService *service.QuestionService) *QuestionController {
	return &QuestionController{QuestionService: questionService}
}

// @Summary List the question bank
// @Tags questions
// @Produce json
// @Success 200 {object} util.Response{data=[]model.Question}
// @Router /questions [get]
func (c *QuestionController) ListQuestions(ctx *gin.Context) {
	questions, err := c.QuestionService.RawBank(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}
	if questions == nil {
		questions = []model.Question{}
	}
	util.Success(ctx, questions)
}

// @Summary Get a question by id or code
// @Tags questions
// @Produce json
// @Param key path string true "Question id or code"
// @Success 200 {object} util.Response{data=model.Question}
// @Failure 404 {object} util.Response
// @Router /questions/{key} [get]
func (c *QuestionController) GetQuestion(ctx *gin.Context) {
	question, err := c.QuestionService.Find(ctx.Request.Context(), ctx.Param("key"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, question)
}
