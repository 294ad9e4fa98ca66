package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector 收集HTTP层的Prometheus指标。
type Collector struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	notifyTotal     *prometheus.CounterVec
}

// NewCollector 创建Collector并注册所有指标。
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nebula_http_requests_total",
			Help: "按方法、路径和状态码统计的HTTP请求总数",
		}, []string{"method", "path", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "nebula_http_request_duration_seconds",
			Help:    "HTTP请求处理时长（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		notifyTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nebula_notifications_total",
			Help: "按投递结果统计的高分通知总数",
		}, []string{"result"}),
	}

	c.registry.MustRegister(c.requestTotal, c.requestDuration, c.notifyTotal)
	return c
}

// RecordNotification 记录一次高分通知的投递结果（sent/stale/failed）。
func (c *Collector) RecordNotification(result string) {
	c.notifyTotal.WithLabelValues(result).Inc()
}

// Middleware 返回记录请求指标的gin中间件。
func (c *Collector) Middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()

		ctx.Next()

		// 使用路由模板而不是原始路径，避免指标基数爆炸
		path := ctx.FullPath()
		if path == "" {
			path = "unmatched"
		}
		c.requestTotal.WithLabelValues(ctx.Request.Method, path, strconv.Itoa(ctx.Writer.Status())).Inc()
		c.requestDuration.WithLabelValues(ctx.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// Handler 返回/metrics端点的gin处理函数。
func (c *Collector) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
	return func(ctx *gin.Context) {
		h.ServeHTTP(ctx.Writer, ctx.Request)
	}
}
