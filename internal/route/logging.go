package route

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

func init() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
}

// NewLogger 根据配置创建日志
// 输出到文件时返回的 io.Closer 需要在退出前关闭；输出到 stdout 时为 nil
func NewLogger(cfg LogConfig, runID string) (zerolog.Logger, io.Closer, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	var (
		out    io.Writer = os.Stdout
		closer io.Closer
	)
	switch cfg.Output {
	case "file":
		if err := os.MkdirAll(cfg.LogDir, 0755); err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		logFile, err := os.OpenFile(
			filepath.Join(cfg.LogDir, runID+".log"),
			os.O_CREATE|os.O_WRONLY|os.O_APPEND,
			0666,
		)
		if err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out, closer = logFile, logFile
	default:
		if cfg.Pretty {
			out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}
		}
	}

	logger := zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("run_id", runID).
		Logger()
	return logger, closer, nil
}
