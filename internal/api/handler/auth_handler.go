package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"dorm-repair/config"
	"dorm-repair/internal/api/middleware"
	"dorm-repair/internal/dto"
	"dorm-repair/internal/service"
	"dorm-repair/pkg/response"
)

// AuthHandler 认证模块 HTTP 处理器
type AuthHandler struct {
	authSvc service.AuthService
	authCfg *config.AuthConfig
}

// NewAuthHandler 创建 AuthHandler
func NewAuthHandler(authSvc service.AuthService, authCfg *config.AuthConfig) *AuthHandler {
	return &AuthHandler{authSvc: authSvc, authCfg: authCfg}
}

// Login 用户登录
// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.authSvc.Login(c.Request.Context(), &req)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	h.setSessionCookie(c, result.Token)
	response.OKMessage(c, "登录成功", result)
}

// Logout 用户登出，会话不存在时同样返回成功
// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if sid := middleware.SessionToken(c, h.authCfg.Cookie.Name); sid != "" {
		// 删除失败已在 Service 记录，客户端侧仍视为登出
		_ = h.authSvc.Logout(c.Request.Context(), sid)
	}

	h.clearSessionCookie(c)
	response.OKMessage(c, "登出成功", nil)
}

// GetCurrentUser 获取当前用户信息
// GET /api/auth/user
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	user, err := h.authSvc.CurrentUser(c.Request.Context(), userID)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.OK(c, user)
}

// ChangePassword 修改密码
// POST /api/auth/change-password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	if err := h.authSvc.ChangePassword(c.Request.Context(), userID, &req); err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.OKMessage(c, "密码已修改", nil)
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, sid string) {
	c.SetSameSite(sameSiteMode(h.authCfg.Cookie.SameSite))
	c.SetCookie(
		h.authCfg.Cookie.Name,
		sid,
		int(h.authCfg.SessionTTL.Seconds()),
		"/",
		h.authCfg.Cookie.Domain,
		h.authCfg.Cookie.Secure,
		true,
	)
}

func (h *AuthHandler) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(sameSiteMode(h.authCfg.Cookie.SameSite))
	c.SetCookie(h.authCfg.Cookie.Name, "", -1, "/", h.authCfg.Cookie.Domain, h.authCfg.Cookie.Secure, true)
}

func sameSiteMode(s string) http.SameSite {
	switch strings.ToLower(s) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

// handleAuthError 统一处理认证模块业务错误
func (h *AuthHandler) handleAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrLoginFieldsRequired):
		response.BadRequest(c, 11001, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Unauthorized(c, 11002, err.Error())
	case errors.Is(err, service.ErrAccountDisabled):
		response.Forbidden(c, 11003, err.Error())
	case errors.Is(err, service.ErrSessionInvalid):
		response.Unauthorized(c, 11004, err.Error())
	case errors.Is(err, service.ErrWrongOldPassword):
		response.BadRequest(c, 11005, err.Error())
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 11006, err.Error())
	default:
		response.InternalError(c)
	}
}
