package leaderboard

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Repository 是分数记录在外部持久化表上的存储适配器。
// put/delete/scan都是对外部存储的直接调用，本地不持有任何状态。
type Repository struct {
	rdb *redis.Client
}

// NewRepository 创建一个存储适配器。
func NewRepository(rdb *redis.Client) *Repository {
	return &Repository{rdb: rdb}
}

// cursorPayload 是翻页游标的内部结构。
// 游标对调用方完全不透明，只保证原样往返。
type cursorPayload struct {
	Offset int64 `json:"o"`
}

// encodeCursor 把遍历偏移量编码为不透明的游标字符串。
func encodeCursor(offset int64) string {
	raw, _ := json.Marshal(cursorPayload{Offset: offset})
	return base64.RawURLEncoding.EncodeToString(raw)
}

// decodeCursor 解析一个由先前扫描返回的游标。
func decodeCursor(token string) (int64, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return 0, fmt.Errorf("无效的翻页游标: %w", err)
	}
	var payload cursorPayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.Offset < 0 {
		return 0, fmt.Errorf("无效的翻页游标")
	}
	return payload.Offset, nil
}

// Put 持久化一条分数记录。对固定ID重复写入是覆盖语义。
func (r *Repository) Put(ctx context.Context, record ScoreRecord) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return err
	}

	// 记录本体和遍历索引在一个事务管道中一起写入
	pipe := r.rdb.TxPipeline()
	pipe.HSet(ctx, RecordsKey, record.ID, raw)
	pipe.ZAdd(ctx, IndexKey, redis.Z{Score: float64(record.Timestamp), Member: record.ID})
	_, err = pipe.Exec(ctx)
	return err
}

// DeleteByID 按ID删除一条记录。
// 删除是幂等的：ID不存在时同样返回成功，调用方无法区分。
func (r *Repository) DeleteByID(ctx context.Context, id string) error {
	pipe := r.rdb.TxPipeline()
	pipe.HDel(ctx, RecordsKey, id)
	pipe.ZRem(ctx, IndexKey, id)
	_, err := pipe.Exec(ctx)
	return err
}

// Scan 返回最多limit条记录和下一页的游标。
// token为空表示从头开始；返回的游标为空表示已经扫完。
func (r *Repository) Scan(ctx context.Context, limit int64, token string) ([]ScoreRecord, string, error) {
	if limit <= 0 {
		return nil, "", fmt.Errorf("扫描页大小必须为正数")
	}

	var offset int64
	if token != "" {
		var err error
		if offset, err = decodeCursor(token); err != nil {
			return nil, "", err
		}
	}

	// 多取一个成员来探测是否还有下一页
	ids, err := r.rdb.ZRange(ctx, IndexKey, offset, offset+limit).Result()
	if err != nil {
		return nil, "", err
	}
	if len(ids) == 0 {
		return []ScoreRecord{}, "", nil
	}

	nextToken := ""
	if int64(len(ids)) > limit {
		ids = ids[:limit]
		nextToken = encodeCursor(offset + limit)
	}

	values, err := r.rdb.HMGet(ctx, RecordsKey, ids...).Result()
	if err != nil {
		return nil, "", err
	}

	records := make([]ScoreRecord, 0, len(ids))
	for _, v := range values {
		// 记录可能在索引读取和取值之间被并发删除，跳过空洞
		s, ok := v.(string)
		if !ok {
			continue
		}
		var record ScoreRecord
		if err := json.Unmarshal([]byte(s), &record); err != nil {
			return nil, "", fmt.Errorf("解析存储中的分数记录失败: %w", err)
		}
		records = append(records, record)
	}
	return records, nextToken, nil
}

// Count 返回表中记录的总数（只计数，不取数据）。
func (r *Repository) Count(ctx context.Context) (int64, error) {
	return r.rdb.HLen(ctx, RecordsKey).Result()
}
