package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/SlpAus/nebula-leaderboard-backend/internal/identity"
	"github.com/SlpAus/nebula-leaderboard-backend/pkg/response"
	"github.com/SlpAus/nebula-leaderboard-backend/pkg/sessioncrypto"
	"github.com/gin-gonic/gin"
)

// IdentityProvider 是handler所依赖的身份提供方能力。
// 由identity.Client实现；测试中用假实现替换。
type IdentityProvider interface {
	SignUp(ctx context.Context, input identity.SignUpInput) (*identity.SignUpResult, error)
	Confirm(ctx context.Context, username, code string) error
	Authenticate(ctx context.Context, username, password string) (*identity.AuthenticationResult, error)
}

// RegisterRequestBody 定义了注册请求体的JSON结构
type RegisterRequestBody struct {
	Username          string `json:"username" binding:"required"`
	Password          string `json:"password" binding:"required"`
	Email             string `json:"email" binding:"required"`
	Name              string `json:"name" binding:"required"`
	PreferredUsername string `json:"preferred_username" binding:"required"`
}

// LoginRequestBody 定义了登录请求体的JSON结构
type LoginRequestBody struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ConfirmRequestBody 定义了确认请求体的JSON结构
type ConfirmRequestBody struct {
	Username string `json:"username" binding:"required"`
	Code     string `json:"code" binding:"required"`
}

// Handler 持有认证路由的全部处理函数。
type Handler struct {
	provider IdentityProvider
	sealer   *sessioncrypto.Sealer
}

// NewHandler 创建认证处理器。
func NewHandler(provider IdentityProvider, sealer *sessioncrypto.Sealer) *Handler {
	return &Handler{provider: provider, sealer: sealer}
}

// Register 处理 POST /auth/register
func (h *Handler) Register(c *gin.Context) {
	var body RegisterRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.JSON(c, http.StatusBadRequest, nil,
			"username, password, email, name and preferred_username are required")
		return
	}

	result, err := h.provider.SignUp(c.Request.Context(), identity.SignUpInput{
		Username:          body.Username,
		Password:          body.Password,
		Email:             body.Email,
		Name:              body.Name,
		PreferredUsername: body.PreferredUsername,
	})
	if err != nil {
		response.JSON(c, http.StatusInternalServerError, nil, "Signup failed: "+err.Error())
		return
	}

	// 转发提供方的状态码
	status := result.Status
	if status == 0 {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{"success": true, "message": "signup_ok", "data": result})
}

// Login 处理 POST /auth/login
func (h *Handler) Login(c *gin.Context) {
	var body LoginRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.JSON(c, http.StatusBadRequest, nil, "username and password required")
		return
	}

	// 1. 委托身份提供方完成认证
	auth, err := h.provider.Authenticate(c.Request.Context(), body.Username, body.Password)
	if err != nil {
		// 提供方的失败状态（如凭证错误的401）原样转发
		status := http.StatusInternalServerError
		var pe *identity.ProviderError
		if errors.As(err, &pe) && pe.StatusCode > 0 {
			status = pe.StatusCode
		}
		response.JSON(c, status, nil, "Login failed: "+err.Error())
		return
	}

	// 2. 解码身份令牌中的显示声明（不做本地签名校验）
	claims, err := decodeIDTokenClaims(auth.IDToken)
	if err != nil {
		response.JSON(c, http.StatusInternalServerError, nil, "Login failed: "+err.Error())
		return
	}

	// 3. 打包并加密会话载荷
	blob, err := buildSessionBlob(h.sealer, auth, claims)
	if err != nil {
		response.JSON(c, http.StatusInternalServerError, nil, "Login failed: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"user":     blob,
			"user_id":  claims.Subject,
			"username": claims.Username,
		},
	})
}

// Confirm 处理 POST /auth/confirm
func (h *Handler) Confirm(c *gin.Context) {
	var body ConfirmRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.JSON(c, http.StatusBadRequest, nil, "username and code required")
		return
	}

	if err := h.provider.Confirm(c.Request.Context(), body.Username, body.Code); err != nil {
		response.JSON(c, http.StatusInternalServerError, nil, "Failed to confirm user: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("User %s confirmed", body.Username),
	})
}
