package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Log 是全局的结构化日志实例，供各个模块使用
var Log zerolog.Logger

// Init 根据服务器运行模式初始化全局日志。
// debug模式下输出易读的控制台格式，其余模式输出JSON。
func Init(mode string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs

	if mode == "debug" {
		Log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.TimeOnly}).
			With().Timestamp().Logger()
		return
	}
	Log = zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func init() {
	// 在Init被调用前提供一个可用的缺省日志，避免测试中写空Logger
	Init("debug")
}
