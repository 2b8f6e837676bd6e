package controller

import (
	"digcomp_backend/internal/service"
	"digcomp_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ResourceController struct {
	ResourceService *service.ResourceService
}

func NewResourceController(resourceService *service.ResourceService) *ResourceController {
	return &ResourceController{ResourceService: resourceService}
}

// @Summary Resources linked to a question
// @Tags resources
// @Produce json
// @Param questionCode path string true "Question code"
// @Success 200 {object} util.Response{data=[]model.Resource}
// @Router /resources/{questionCode} [get]
func (c *ResourceController) ForQuestion(ctx *gin.Context) {
	resources, err := c.ResourceService.ForQuestion(ctx.Request.Context(), ctx.Param("questionCode"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, resources)
}
