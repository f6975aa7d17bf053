// 包 logger：统一初始化与获取日志器；通过环境变量控制日志级别、格式与可选的文件输出
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	mu            sync.Mutex
	defaultLogger *slog.Logger
	logFile       *os.File
)

// Setup：初始化默认日志器
// 约束：始终输出到标准错误；LOG_FILE 非空时以追加方式同时写入该文件，打开失败则仅输出到标准错误
func Setup() *slog.Logger {
	mu.Lock()
	defer mu.Unlock()
	var w io.Writer = os.Stderr
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
	if p := os.Getenv("LOG_FILE"); p != "" {
		if f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
			logFile = f
			w = io.MultiWriter(os.Stderr, f)
		}
	}
	defaultLogger = New(w, os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
	return defaultLogger
}

// New：按级别与格式构造日志器，供 Setup 与测试使用
func New(w io.Writer, level, format string) *slog.Logger {
	lvl := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.ToLower(format) == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// L：获取默认日志器；未初始化时回退到 Setup
func L() *slog.Logger {
	mu.Lock()
	l := defaultLogger
	mu.Unlock()
	if l == nil {
		return Setup()
	}
	return l
}

// Close：关闭 LOG_FILE 句柄（若有）
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	return err
}
