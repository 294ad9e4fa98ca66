package leaderboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/SlpAus/nebula-leaderboard-backend/internal/notify"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(store Store, dispatcher Dispatcher) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(NewService(store, dispatcher))

	r := gin.New()
	r.POST("/leaderboard/score", h.SubmitScore)
	r.DELETE("/leaderboard/score/:id", h.DeleteScore)
	r.GET("/leaderboard/top", h.TopScore)
	r.GET("/leaderboard/all", h.ListScores)
	return r
}

func performRequest(r *gin.Engine, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestSubmitScoreMissingFields(t *testing.T) {
	store := newFakeStore()
	r := newTestRouter(store, &fakeDispatcher{})

	// 缺少user_id
	w := performRequest(r, http.MethodPost, "/leaderboard/score",
		`{"user_name":"Ada","score":100}`, map[string]string{"connectionId": "c1"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, false, body["success"])
	// 验证失败时不应有任何存储写入
	assert.Equal(t, 0, store.putCalls)
}

func TestSubmitScoreMissingConnectionID(t *testing.T) {
	store := newFakeStore()
	r := newTestRouter(store, &fakeDispatcher{})

	w := performRequest(r, http.MethodPost, "/leaderboard/score",
		`{"user_id":"u1","user_name":"Ada","score":100}`, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody(t, w)
	assert.Contains(t, body["message"], "Connection ID")
	assert.Equal(t, 0, store.putCalls)
}

func TestSubmitScoreCreated(t *testing.T) {
	store := newFakeStore()
	r := newTestRouter(store, &fakeDispatcher{})

	w := performRequest(r, http.MethodPost, "/leaderboard/score",
		`{"user_id":"u1","user_name":"Ada","score":0}`, map[string]string{"connectionId": "c1"})

	require.Equal(t, http.StatusCreated, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])

	item := body["item"].(map[string]interface{})
	assert.Equal(t, "u1", item["user_id"])
	assert.Equal(t, "Ada", item["user_name"])
	// 0分是合法输入，不能被当作字段缺失
	assert.Equal(t, float64(0), item["score"])
	assert.NotEmpty(t, item["id"])
}

// recordingPoster 记录每次按连接投递的内容。
type recordingPoster struct {
	mu    sync.Mutex
	err   error
	calls []postedMessage
}

type postedMessage struct {
	connectionID string
	data         string
}

func (p *recordingPoster) PostToConnection(ctx context.Context, connectionID string, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, postedMessage{connectionID: connectionID, data: string(data)})
	return p.err
}

func TestSubmitScoreEndToEndNotification(t *testing.T) {
	store := newFakeStore()
	poster := &recordingPoster{}
	dispatcher := notify.NewDispatcher(notify.NewNotifier(poster, nil))
	r := newTestRouter(store, dispatcher)

	w := performRequest(r, http.MethodPost, "/leaderboard/score",
		`{"user_id":"u1","user_name":"Ada","score":1200}`, map[string]string{"connectionId": "c1"})

	require.Equal(t, http.StatusCreated, w.Code)
	body := decodeBody(t, w)
	item := body["item"].(map[string]interface{})
	assert.Equal(t, float64(1200), item["score"])

	// 等待异步投递完成后，恰好有一次对c1的推送，内容包含用户名和分数
	dispatcher.Drain()
	require.Len(t, poster.calls, 1)
	assert.Equal(t, "c1", poster.calls[0].connectionID)
	assert.Contains(t, poster.calls[0].data, "Ada")
	assert.Contains(t, poster.calls[0].data, "1200")
}

func TestSubmitScoreBelowThresholdNoNotification(t *testing.T) {
	store := newFakeStore()
	poster := &recordingPoster{}
	dispatcher := notify.NewDispatcher(notify.NewNotifier(poster, nil))
	r := newTestRouter(store, dispatcher)

	w := performRequest(r, http.MethodPost, "/leaderboard/score",
		`{"user_id":"u1","user_name":"Ada","score":1000}`, map[string]string{"connectionId": "c1"})

	require.Equal(t, http.StatusCreated, w.Code)
	dispatcher.Drain()
	assert.Empty(t, poster.calls)
}

func TestSubmitScoreNotificationFailureDoesNotAffectResponse(t *testing.T) {
	store := newFakeStore()
	poster := &recordingPoster{err: errors.New("gateway down")}
	dispatcher := notify.NewDispatcher(notify.NewNotifier(poster, nil))
	r := newTestRouter(store, dispatcher)

	w := performRequest(r, http.MethodPost, "/leaderboard/score",
		`{"user_id":"u1","user_name":"Ada","score":2000}`, map[string]string{"connectionId": "c1"})

	// 投递失败被完全消化，不影响提交结果
	assert.Equal(t, http.StatusCreated, w.Code)
	dispatcher.Drain()
	assert.Len(t, poster.calls, 1)
}

func TestDeleteScoreMissingHeaders(t *testing.T) {
	r := newTestRouter(newFakeStore(), &fakeDispatcher{})

	w := performRequest(r, http.MethodDelete, "/leaderboard/score/some-id", "", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteScoreUnknownIDSucceeds(t *testing.T) {
	r := newTestRouter(newFakeStore(), &fakeDispatcher{})

	w := performRequest(r, http.MethodDelete, "/leaderboard/score/no-such-id", "",
		map[string]string{"userid": "u1", "username": "Ada"})

	// 幂等删除：无法区分ID是否存在
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Score deleted successfully", body["message"])
}

func TestTopScoreEmpty(t *testing.T) {
	r := newTestRouter(newFakeStore(), &fakeDispatcher{})

	w := performRequest(r, http.MethodGet, "/leaderboard/top", "", nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, float64(0), body["count"])
	assert.Empty(t, body["data"])
}

func TestListScoresDefaultLimitOnMalformedQuery(t *testing.T) {
	store := newFakeStore()
	dispatcher := &fakeDispatcher{}
	r := newTestRouter(store, dispatcher)

	svc := NewService(store, dispatcher)
	for i := 0; i < 7; i++ {
		_, err := svc.SubmitScore(context.Background(), "u1", "Ada", float64(i), "c1")
		require.NoError(t, err)
	}

	// limit非法时回退到默认的5，而不是报错
	w := performRequest(r, http.MethodGet, "/leaderboard/all?limit=abc", "", nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Len(t, body["data"], 5)
	assert.Equal(t, float64(7), body["count"])
}

func TestListScoresMalformedCursor(t *testing.T) {
	store := newFakeStore()
	r := newTestRouter(store, &fakeDispatcher{})

	// 游标对客户端不透明，被篡改的lastKey报错而不是静默从头开始
	w := performRequest(r, http.MethodGet, "/leaderboard/all?lastKey=not-a-cursor", "", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["message"], "Failed to retrieve leaderboard scores")
}

func TestListScoresPaginationOverHTTP(t *testing.T) {
	store := newFakeStore()
	dispatcher := &fakeDispatcher{}
	r := newTestRouter(store, dispatcher)

	svc := NewService(store, dispatcher)
	for i := 0; i < 5; i++ {
		_, err := svc.SubmitScore(context.Background(), "u1", "Ada", float64(i), "c1")
		require.NoError(t, err)
	}

	// 第一页
	w := performRequest(r, http.MethodGet, "/leaderboard/all?limit=2", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Len(t, body["data"], 2)
	assert.Equal(t, float64(5), body["count"])
	token, ok := body["lastKey"].(string)
	require.True(t, ok, "第一页必须返回非空的lastKey")

	// 第二页：剩余3条，lastKey为null
	w = performRequest(r, http.MethodGet, "/leaderboard/all?lastKey="+token, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body = decodeBody(t, w)
	assert.Len(t, body["data"], 3)
	assert.Equal(t, float64(5), body["count"])
	assert.Nil(t, body["lastKey"])
}
