package leaderboard

// 定义与排行榜相关的Redis键名
const (
	// RecordsKey 是一个 Redis Hash 的键，存储全部分数记录。
	// Field: 记录ID
	// Value: ScoreRecord 结构体的JSON序列化字符串
	RecordsKey = "leaderboard:records"

	// IndexKey 是一个 Redis Sorted Set 的键，为记录提供稳定的遍历顺序。
	// Score: 记录的提交时间戳（毫秒）
	// Member: 记录ID
	// 注意：遍历顺序是存储定义的（按提交时间），不是按分数排序。
	// 需要"最高分"这类顺序时由调用方在内存中排序。
	IndexKey = "leaderboard:index"
)
