package controller

import (
	"digcomp_backend/internal/model"
	"digcomp_backend/internal/quiz"
	"digcomp_backend/internal/service"
	"digcomp_backend/internal/util"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// swagger:model CreateAttemptRequest
type CreateAttemptRequest struct {
	ID     string `json:"id" binding:"omitempty,uuid"`
	UserID string `json:"userId" binding:"required"`
}

// UpdateAttemptRequest overwrites the stored progress and result.
// swagger:model UpdateAttemptRequest
type UpdateAttemptRequest struct {
	Progress   []quiz.Outcome `json:"progresoPreguntas"`
	Result     *quiz.Summary  `json:"resultado"`
	FinishedAt *time.Time     `json:"fechaFin"`
}

// SubmitAnswerRequest answers the current question. QuestionID is optional
// and, when given, must name the current question.
// swagger:model SubmitAnswerRequest
type SubmitAnswerRequest struct {
	QuestionID string `json:"questionId"`
	quiz.Response
}

type QuizController struct {
	QuizService *service.QuizService
}

func NewQuizController(quizService *service.QuizService) *QuizController {
	return &QuizController{QuizService: quizService}
}

// @Summary Create an attempt
// @Tags quizzes
// @Accept json
// @Produce json
// @Param attempt body CreateAttemptRequest true "Owner"
// @Success 201 {object} util.Response{data=model.Attempt}
// @Failure 404 {object} util.Response
// @Router /quizzes [post]
func (c *QuizController) CreateAttempt(ctx *gin.Context) {
	var req CreateAttemptRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	attempt, err := c.QuizService.CreateAttempt(ctx.Request.Context(), req.ID, req.UserID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, attempt)
}

// @Summary List attempts
// @Tags quizzes
// @Produce json
// @Success 200 {object} util.Response{data=[]model.Attempt}
// @Router /quizzes [get]
func (c *QuizController) ListAttempts(ctx *gin.Context) {
	attempts, err := c.QuizService.ListAttempts(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, attempts)
}

// @Summary List the attempts of a user
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} util.Response{data=[]model.Attempt}
// @Failure 404 {object} util.Response
// @Router /users/{id}/quizzes [get]
func (c *QuizController) ListUserAttempts(ctx *gin.Context) {
	attempts, err := c.QuizService.ListUserAttempts(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, attempts)
}

// @Summary Delete every attempt
// @Tags quizzes
// @Produce json
// @Success 200 {object} util.Response
// @Router /quizzes [delete]
func (c *QuizController) DeleteAllAttempts(ctx *gin.Context) {
	n, err := c.QuizService.DeleteAllAttempts(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"deleted": n})
}

// @Summary Get an attempt
// @Tags quizzes
// @Produce json
// @Param id path string true "Attempt id"
// @Success 200 {object} util.Response{data=model.Attempt}
// @Failure 404 {object} util.Response
// @Router /quizzes/{id} [get]
func (c *QuizController) GetAttempt(ctx *gin.Context) {
	attempt, err := c.QuizService.GetAttempt(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, attempt)
}

// @Summary Overwrite attempt progress
// @Tags quizzes
// @Accept json
// @Produce json
// @Param id path string true "Attempt id"
// @Param attempt body UpdateAttemptRequest true "Progress and result"
// @Success 200 {object} util.Response{data=model.Attempt}
// @Router /quizzes/{id} [put]
func (c *QuizController) UpdateAttempt(ctx *gin.Context) {
	var req UpdateAttemptRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	attempt, err := c.QuizService.UpdateAttempt(ctx.Request.Context(), ctx.Param("id"), model.AttemptUpdate{
		Progress:   req.Progress,
		Result:     req.Result,
		FinishedAt: req.FinishedAt,
	})
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, attempt)
}

// @Summary Delete an attempt
// @Tags quizzes
// @Param id path string true "Attempt id"
// @Success 204
// @Router /quizzes/{id} [delete]
func (c *QuizController) DeleteAttempt(ctx *gin.Context) {
	if err := c.QuizService.DeleteAttempt(ctx.Request.Context(), ctx.Param("id")); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// @Summary Start the quiz
// @Description Builds the battery and returns the first question. Calling it
// @Description again while the quiz runs returns the current question.
// @Tags quizzes
// @Produce json
// @Param id path string true "Attempt id"
// @Success 200 {object} util.Response{data=service.QuestionView}
// @Failure 409 {object} util.Response
// @Failure 503 {object} util.Response
// @Router /quizzes/{id}/start [post]
func (c *QuizController) Start(ctx *gin.Context) {
	view, err := c.QuizService.Start(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// @Summary Current question
// @Tags quizzes
// @Produce json
// @Param id path string true "Attempt id"
// @Success 200 {object} util.Response{data=service.QuestionView}
// @Failure 404 {object} util.Response
// @Router /quizzes/{id}/current [get]
func (c *QuizController) Current(ctx *gin.Context) {
	view, err := c.QuizService.Current(ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// @Summary Answer the current question
// @Tags quizzes
// @Accept json
// @Produce json
// @Param id path string true "Attempt id"
// @Param answer body SubmitAnswerRequest true "Answer"
// @Success 200 {object} util.Response{data=service.AnswerResult}
// @Failure 400 {object} util.Response
// @Router /quizzes/{id}/answers [post]
func (c *QuizController) SubmitAnswer(ctx *gin.Context) {
	var req SubmitAnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	res, err := c.QuizService.Submit(ctx.Request.Context(), ctx.Param("id"), req.QuestionID, req.Response)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, res)
}

// @Summary Abandon the quiz
// @Description The attempt is deleted after a grace period unless it finishes first.
// @Tags quizzes
// @Param id path string true "Attempt id"
// @Success 202 {object} util.Response
// @Router /quizzes/{id}/abandon [post]
func (c *QuizController) Abandon(ctx *gin.Context) {
	if err := c.QuizService.Abandon(ctx.Request.Context(), ctx.Param("id")); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusAccepted, util.Response{Code: http.StatusAccepted, Message: "abandon scheduled"})
}
