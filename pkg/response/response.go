package response

import "github.com/gin-gonic/gin"

// Envelope 定义了通用API响应的JSON结构。
// 根路由和错误路径都使用这个统一的信封格式。
type Envelope struct {
	Status  int         `json:"status"`
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// JSON 按统一的信封格式写出响应。
// success 字段由HTTP状态码自动推导：2xx为true，其余为false。
func JSON(c *gin.Context, status int, data interface{}, message string) {
	c.JSON(status, Envelope{
		Status:  status,
		Success: status >= 200 && status < 300,
		Data:    data,
		Message: message,
	})
}
