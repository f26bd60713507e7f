package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	authsvc "github.com/krishna9325/Car-Rental/internal/service/auth"
)

const adminKeyHeader = "X-Admin-Signup-Key"

type AuthHandler struct {
	service authsvc.AuthUseCase
}

func NewAuthHandler(service authsvc.AuthUseCase) *AuthHandler {
	return &AuthHandler{service: service}
}

func (h *AuthHandler) Register(router *gin.RouterGroup) {
	router.POST("/signup", h.signup)
	router.POST("/admin/signup", h.adminSignup)
	router.POST("/login", h.login)
}

func (h *AuthHandler) signup(c *gin.Context) {
	var req authsvc.Credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBadRequest(c, err)
		return
	}

	session, err := h.service.Signup(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

func (h *AuthHandler) adminSignup(c *gin.Context) {
	var req authsvc.Credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBadRequest(c, err)
		return
	}

	session, err := h.service.AdminSignup(c.Request.Context(), req, c.GetHeader(adminKeyHeader))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

func (h *AuthHandler) login(c *gin.Context) {
	var req authsvc.LoginInput
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBadRequest(c, err)
		return
	}

	session, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}
