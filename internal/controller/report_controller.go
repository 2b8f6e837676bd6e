package controller

import (
	"bytes"
	"digcomp_backend/internal/service"
	"digcomp_backend/internal/util"
	"io"
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
)

// swagger:model EmailReportRequest
type EmailReportRequest struct {
	Email    string `json:"email" binding:"required,email"`
	UserName string `json:"userName" binding:"max=120"`
}

// swagger:model EmailUploadForm
type EmailUploadForm struct {
	Email    string `form:"email" binding:"required,email"`
	UserName string `form:"userName" binding:"max=120"`
}

type ReportController struct {
	ReportService *service.ReportService
}

func NewReportController(reportService *service.ReportService) *ReportController {
	return &ReportController{ReportService: reportService}
}

// @Summary Attempt report
// @Description Scores per area, level band, feedback and recommended resources.
// @Tags reports
// @Produce json
// @Param id path string true "Attempt id"
// @Success 200 {object} util.Response{data=service.AttemptReport}
// @Failure 409 {object} util.Response
// @Router /quizzes/{id}/report [get]
func (c *ReportController) GetReport(ctx *gin.Context) {
	report, err := c.ReportService.Report(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, report)
}

// @Summary Download the report PDF
// @Tags reports
// @Produce application/pdf
// @Param id path string true "Attempt id"
// @Success 200 {file} file
// @Router /quizzes/{id}/report/pdf [get]
func (c *ReportController) DownloadPDF(ctx *gin.Context) {
	pdf, filename, err := c.ReportService.PDF(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	ctx.Data(http.StatusOK, util.MimePDF, pdf)
}

// @Summary E-mail the report PDF
// @Tags reports
// @Accept json
// @Produce json
// @Param id path string true "Attempt id"
// @Param request body EmailReportRequest true "Recipient"
// @Success 200 {object} util.Response
// @Failure 502 {object} util.Response
// @Router /quizzes/{id}/report/email [post]
func (c *ReportController) EmailReport(ctx *gin.Context) {
	var req EmailReportRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.ReportService.Email(ctx.Request.Context(), ctx.Param("id"), req.Email, req.UserName); err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"sent": true})
}

// @Summary E-mail a client-generated report
// @Tags reports
// @Accept multipart/form-data
// @Produce json
// @Param pdf formData file true "Report PDF"
// @Param email formData string true "Recipient"
// @Param userName formData string false "User name"
// @Success 200 {object} util.Response
// @Router /results/email [post]
func (c *ReportController) EmailUploadedReport(ctx *gin.Context) {
	var form EmailUploadForm
	if err := ctx.ShouldBind(&form); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	fh, err := ctx.FormFile("pdf")
	if err != nil {
		util.BadRequest(ctx, "pdf is required")
		return
	}
	if fh.Size > util.MaxReportUpload {
		util.Error(ctx, http.StatusRequestEntityTooLarge, "pdf is too large")
		return
	}

	f, err := fh.Open()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer f.Close()

	pdf, err := io.ReadAll(io.LimitReader(f, util.MaxReportUpload))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	if _, err := util.ValidateMimeType(bytes.NewReader(pdf), []string{util.MimePDF}); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.ReportService.EmailUploaded(ctx.Request.Context(), form.Email, form.UserName, pdf); err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"sent": true})
}
