package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"dorm-repair/internal/service"
	"dorm-repair/pkg/response"
	"dorm-repair/pkg/session"
)

// SessionAuth 写入 gin.Context 的键
const (
	CtxUserID    = "user_id"
	CtxIsStaff   = "is_staff"
	CtxSessionID = "session_id"
)

// SessionResolver 根据会话 ID 解析当前登录用户
type SessionResolver interface {
	ResolveSession(ctx context.Context, sessionID string) (*session.Session, error)
}

// SessionToken 从 Authorization: Bearer <sid> 或会话 Cookie 中提取会话 ID
func SessionToken(c *gin.Context, cookieName string) string {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return strings.TrimSpace(parts[1])
		}
	}
	sid, err := c.Cookie(cookieName)
	if err != nil {
		return ""
	}
	return sid
}

// SessionAuth 会话认证中间件
// 会话有效时注入 user_id / is_staff / session_id
func SessionAuth(resolver SessionResolver, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid := SessionToken(c, cookieName)
		if sid == "" {
			response.Unauthorized(c, 10002, "未登录")
			c.Abort()
			return
		}

		sess, err := resolver.ResolveSession(c.Request.Context(), sid)
		if err != nil {
			if errors.Is(err, service.ErrSessionInvalid) {
				response.Unauthorized(c, 10002, err.Error())
			} else {
				response.InternalError(c)
			}
			c.Abort()
			return
		}

		c.Set(CtxUserID, sess.UserID)
		c.Set(CtxIsStaff, sess.IsStaff)
		c.Set(CtxSessionID, sess.ID)

		c.Next()
	}
}

// RequireStaff 工作人员权限中间件，需在 SessionAuth 之后使用
func RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := c.Get(CtxUserID); !exists {
			response.Unauthorized(c, 10002, "未登录")
			c.Abort()
			return
		}

		if !c.GetBool(CtxIsStaff) {
			response.Forbidden(c, 10003, "需要工作人员权限")
			c.Abort()
			return
		}

		c.Next()
	}
}
