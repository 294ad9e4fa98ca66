package leaderboard

import (
	"net/http"
	"strconv"

	"github.com/SlpAus/nebula-leaderboard-backend/pkg/response"
	"github.com/gin-gonic/gin"
)

// defaultPageSize 是/all接口在limit缺失或非法时使用的页大小
const defaultPageSize = 5

// SubmitScoreRequestBody 定义了提交分数时请求体的JSON结构。
// Score使用指针以区分"未提供"和合法的0分。
type SubmitScoreRequestBody struct {
	UserID   string   `json:"user_id" binding:"required"`
	UserName string   `json:"user_name" binding:"required"`
	Score    *float64 `json:"score" binding:"required"`
}

// Handler 持有排行榜路由的全部处理函数。
// 依赖通过构造注入，便于在测试中替换为假实现。
type Handler struct {
	service *Service
}

// NewHandler 创建排行榜处理器。
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// SubmitScore 处理 POST /leaderboard/score
func (h *Handler) SubmitScore(c *gin.Context) {
	// 1. 绑定并验证请求体
	var body SubmitScoreRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.JSON(c, http.StatusBadRequest, nil, "user_id, user_name and score required")
		return
	}

	// 2. 通知路由需要的连接ID从请求头带入
	connectionID := c.GetHeader("connectionId")
	if connectionID == "" {
		response.JSON(c, http.StatusBadRequest, nil, "Connection ID is required, please reconnect")
		return
	}

	// 3. 持久化并派发高分通知
	record, err := h.service.SubmitScore(c.Request.Context(), body.UserID, body.UserName, *body.Score, connectionID)
	if err != nil {
		response.JSON(c, http.StatusInternalServerError, nil, "Failed to save score: "+err.Error())
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "item": record})
}

// DeleteScore 处理 DELETE /leaderboard/score/:id
func (h *Handler) DeleteScore(c *gin.Context) {
	// 提交者身份从请求头带入。当前只要求字段在场，不校验记录归属。
	userID := c.GetHeader("userid")
	userName := c.GetHeader("username")
	scoreID := c.Param("id")
	if userID == "" || userName == "" || scoreID == "" {
		response.JSON(c, http.StatusBadRequest, nil, "userid, username and score id required")
		return
	}

	if err := h.service.DeleteScore(c.Request.Context(), scoreID); err != nil {
		response.JSON(c, http.StatusInternalServerError, nil, "Failed to delete score: "+err.Error())
		return
	}

	// 外部存储的删除不区分ID是否存在，响应同样不区分
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Score deleted successfully"})
}

// TopScore 处理 GET /leaderboard/top
func (h *Handler) TopScore(c *gin.Context) {
	top, count, err := h.service.TopScore(c.Request.Context())
	if err != nil {
		response.JSON(c, http.StatusInternalServerError, nil, "Failed to retrieve leaderboard highest score: "+err.Error())
		return
	}

	data := []ScoreRecord{}
	if top != nil {
		data = append(data, *top)
	}
	c.JSON(http.StatusOK, gin.H{"data": data, "count": count})
}

// ListScores 处理 GET /leaderboard/all
func (h *Handler) ListScores(c *gin.Context) {
	// limit缺失或非法时回退到默认页大小，而不是报错
	limit, err := strconv.ParseInt(c.Query("limit"), 10, 64)
	if err != nil || limit <= 0 {
		limit = defaultPageSize
	}
	token := c.Query("lastKey")

	records, count, next, err := h.service.ListScores(c.Request.Context(), limit, token)
	if err != nil {
		response.JSON(c, http.StatusInternalServerError, nil, "Failed to retrieve leaderboard scores: "+err.Error())
		return
	}

	// 扫完时lastKey显式输出null，客户端以此判断翻页结束
	var lastKey interface{}
	if next != "" {
		lastKey = next
	}
	c.JSON(http.StatusOK, gin.H{"data": records, "count": count, "lastKey": lastKey})
}
