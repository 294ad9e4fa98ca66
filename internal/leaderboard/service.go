package leaderboard

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// topScanPageSize 是查询最高分时全表扫描的单页大小
const topScanPageSize = 100

// Store 是service所依赖的存储适配器能力。
// 由Repository实现；测试中用内存假实现替换。
type Store interface {
	Put(ctx context.Context, record ScoreRecord) error
	DeleteByID(ctx context.Context, id string) error
	Scan(ctx context.Context, limit int64, token string) ([]ScoreRecord, string, error)
	Count(ctx context.Context) (int64, error)
}

// Dispatcher 是高分通知的异步派发入口。
// 派发永不失败也永不阻塞，投递结果与请求处理完全隔离。
type Dispatcher interface {
	Dispatch(userID, userName string, score float64, connectionID string)
}

// Service 实现排行榜的业务操作。
type Service struct {
	store      Store
	dispatcher Dispatcher
}

// NewService 创建排行榜服务。
func NewService(store Store, dispatcher Dispatcher) *Service {
	return &Service{store: store, dispatcher: dispatcher}
}

// SubmitScore 创建并持久化一条新的分数记录。
// 持久化成功后异步触发高分通知；通知的成败不影响本次提交的结果。
func (s *Service) SubmitScore(ctx context.Context, userID, userName string, score float64, connectionID string) (*ScoreRecord, error) {
	record := ScoreRecord{
		ID:        uuid.NewString(),
		UserID:    userID,
		UserName:  userName,
		Score:     score,
		Timestamp: time.Now().UnixMilli(),
	}

	if err := s.store.Put(ctx, record); err != nil {
		return nil, err
	}

	s.dispatcher.Dispatch(userID, userName, score, connectionID)
	return &record, nil
}

// DeleteScore 按ID删除一条分数记录。
// 外部存储的删除对不存在的ID同样报告成功，这个幂等语义被原样保留。
func (s *Service) DeleteScore(ctx context.Context, id string) error {
	return s.store.DeleteByID(ctx, id)
}

// TopScore 返回当前最高分的记录和记录总数。
// 实现是全表扫描加内存取最大值：外部存储没有服务端的top-N查询，
// 这是已知的规模上限，不是待修复的缺陷。
func (s *Service) TopScore(ctx context.Context) (*ScoreRecord, int64, error) {
	var top *ScoreRecord
	var count int64

	token := ""
	for {
		records, next, err := s.store.Scan(ctx, topScanPageSize, token)
		if err != nil {
			return nil, 0, err
		}
		for i := range records {
			count++
			if top == nil || records[i].Score > top.Score {
				top = &records[i]
			}
		}
		if next == "" {
			return top, count, nil
		}
		token = next
	}
}

// ListScores 返回一页分数记录、记录总数和下一页的游标。
// 总数来自一次独立的计数查询，与当页数据不保证事务一致；
// 并发写入时两者可能出现偏差，这是接受的设计松弛。
func (s *Service) ListScores(ctx context.Context, limit int64, token string) ([]ScoreRecord, int64, string, error) {
	count, err := s.store.Count(ctx)
	if err != nil {
		return nil, 0, "", err
	}

	records, next, err := s.store.Scan(ctx, limit, token)
	if err != nil {
		return nil, 0, "", err
	}
	return records, count, next, nil
}
