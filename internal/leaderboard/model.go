package leaderboard

// ScoreRecord 是一条分数记录。
// 记录在提交时创建，之后不再更新，只能按ID删除。
type ScoreRecord struct {
	// ID 是服务端生成的唯一记录标识
	ID string `json:"id"`

	// UserID 是提交者的用户标识。只做松散引用，不校验用户是否存在。
	UserID string `json:"user_id"`

	// UserName 是提交时的显示名
	UserName string `json:"user_name"`

	// Score 是提交的分数
	Score float64 `json:"score"`

	// Timestamp 是提交时刻的毫秒级epoch时间戳
	Timestamp int64 `json:"timestamp"`
}
