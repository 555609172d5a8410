package logger

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	fallbackDirName  = "logs"
	fallbackFilename = "app.log"
)

// Options 文件日志滚动参数，零值字段使用内置默认
type Options struct {
	Dir        string
	Filename   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

func (o Options) maxSizeMB() int  { return positiveOr(o.MaxSizeMB, 100) }
func (o Options) maxBackups() int { return positiveOr(o.MaxBackups, 7) }
func (o Options) maxAgeDays() int { return positiveOr(o.MaxAgeDays, 30) }

// L 全局结构化日志实例
var L *zap.Logger

var (
	stdoutOnce sync.Once
	stdoutZap  *zap.Logger
)

// Init 构建全局日志并接管 zap 全局实例
func Init(mode string, options Options) *zap.Logger {
	L = New(mode, options)
	if L == nil {
		L = stdoutFallback()
	}
	zap.ReplaceGlobals(L)
	return L
}

// New 按运行模式创建日志实例：debug 输出控制台，其余模式写滚动文件
func New(mode string, options Options) *zap.Logger {
	if isDebugMode(mode) {
		return build(zapcore.NewConsoleEncoder(encoderConfig()), zapcore.AddSync(os.Stdout), zap.DebugLevel)
	}

	sink, err := fileSink(options)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: file sink unavailable, using stdout: %v\n", err)
		sink = zapcore.AddSync(os.Stdout)
	}
	return build(zapcore.NewJSONEncoder(encoderConfig()), sink, zap.InfoLevel)
}

// StdLogger 返回兼容标准库 log 的实例，供 http.Server 等组件使用
func StdLogger() *log.Logger {
	return zap.NewStdLog(Z())
}

// Z 返回可用的结构化日志实例，未初始化时退回 stdout
func Z() *zap.Logger {
	if L != nil {
		return L
	}
	return stdoutFallback()
}

// S 返回可用的 SugaredLogger
func S() *zap.SugaredLogger {
	return Z().Sugar()
}

// SW 返回带固定上下文字段的 SugaredLogger
func SW(kv ...any) *zap.SugaredLogger {
	if len(kv) == 0 {
		return S()
	}
	return S().With(kv...)
}

// Debugw 输出 debug 级别日志
func Debugw(msg string, kv ...any) {
	S().Debugw(msg, kv...)
}

// Infow 输出 info 级别日志
func Infow(msg string, kv ...any) {
	S().Infow(msg, kv...)
}

// Warnw 输出 warn 级别日志
func Warnw(msg string, kv ...any) {
	S().Warnw(msg, kv...)
}

// Errorw 输出 error 级别日志
func Errorw(msg string, kv ...any) {
	S().Errorw(msg, kv...)
}

func build(enc zapcore.Encoder, sink zapcore.WriteSyncer, level zapcore.LevelEnabler) *zap.Logger {
	return zap.New(zapcore.NewCore(enc, sink, level), zap.AddCaller(), zap.AddCallerSkip(1))
}

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "time"
	cfg.MessageKey = "message"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeDuration = zapcore.MillisDurationEncoder
	cfg.EncodeLevel = zapcore.LowercaseLevelEncoder
	cfg.EncodeCaller = zapcore.ShortCallerEncoder
	return cfg
}

func stdoutFallback() *zap.Logger {
	stdoutOnce.Do(func() {
		stdoutZap = build(zapcore.NewConsoleEncoder(encoderConfig()), zapcore.AddSync(os.Stdout), zap.InfoLevel)
	})
	return stdoutZap
}

func fileSink(options Options) (zapcore.WriteSyncer, error) {
	path, err := logFilePath(options)
	if err != nil {
		return nil, err
	}
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    options.maxSizeMB(),
		MaxBackups: options.maxBackups(),
		MaxAge:     options.maxAgeDays(),
		Compress:   options.Compress,
	}), nil
}

func logFilePath(options Options) (string, error) {
	dir := strings.TrimSpace(options.Dir)
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("resolve workdir: %w", err)
		}
		dir = filepath.Join(cwd, fallbackDirName)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create log dir: %w", err)
	}

	name := strings.TrimSpace(options.Filename)
	if name == "" {
		name = fallbackFilename
	}
	path := filepath.Join(dir, name)

	// 启动时即探测日志文件可写
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("open log file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close log file: %w", err)
	}
	return path, nil
}

func isDebugMode(mode string) bool {
	return strings.EqualFold(strings.TrimSpace(mode), "debug")
}

func positiveOr(value, fallback int) int {
	if value > 0 {
		return value
	}
	return fallback
}
