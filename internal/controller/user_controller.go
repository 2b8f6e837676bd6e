package controller

import (
	"digcomp_backend/internal/model"
	"digcomp_backend/internal/service"
	"digcomp_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// CreateUserRequest is the registration form shown before a quiz.
// swagger:model CreateUserRequest
type CreateUserRequest struct {
	Name       string `json:"nombre" binding:"required,max=120"`
	Occupation string `json:"ocupacion" binding:"max=120"`
}

type UserController struct {
	UserService *service.UserService
}

func NewUserController(userService *service.UserService) *UserController {
	return &UserController{UserService: userService}
}

// @Summary Register a quiz taker
// @Tags users
// @Accept json
// @Produce json
// @Param X-Device-ID header string false "Client device id"
// @Param user body CreateUserRequest true "User"
// @Success 201 {object} util.Response{data=model.User}
// @Router /users [post]
func (c *UserController) CreateUser(ctx *gin.Context) {
	var req CreateUserRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	user := &model.User{Name: req.Name, Occupation: req.Occupation}
	if err := c.UserService.Create(ctx.Request.Context(), user, ctx.GetHeader(util.DeviceHeader)); err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, user)
}

// @Summary List users
// @Tags users
// @Produce json
// @Success 200 {object} util.Response{data=[]model.User}
// @Router /users [get]
func (c *UserController) ListUsers(ctx *gin.Context) {
	users, err := c.UserService.List(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, users)
}

// @Summary Last user registered from this device
// @Tags users
// @Produce json
// @Param X-Device-ID header string true "Client device id"
// @Success 200 {object} util.Response{data=model.User}
// @Failure 404 {object} util.Response
// @Router /users/last [get]
func (c *UserController) LastUser(ctx *gin.Context) {
	deviceID := ctx.GetHeader(util.DeviceHeader)
	if deviceID == "" {
		util.BadRequest(ctx, util.DeviceHeader+" header is required")
		return
	}

	user, err := c.UserService.Last(ctx.Request.Context(), deviceID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, user)
}

// @Summary Get a user
// @Tags users
// @Produce json
// @Param id path string true "User id"
// @Success 200 {object} util.Response{data=model.User}
// @Failure 404 {object} util.Response
// @Router /users/{id} [get]
func (c *UserController) GetUser(ctx *gin.Context) {
	user, err := c.UserService.Get(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, user)
}
