package logger

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Logger struct {
	*logrus.Logger
	fileLogger *logrus.Logger
}

var defaultLogger *Logger

func init() {
	// 控制台日志配置，stdout 留给总结输出
	consoleLogger := logrus.New()
	consoleLogger.SetFormatter(&logrus.TextFormatter{
		ForceColors:   true,
		FullTimestamp: true,
	})
	consoleLogger.SetOutput(os.Stderr)
	consoleLogger.SetLevel(logrus.InfoLevel)

	// 文件日志默认丢弃，调用 Setup 后才写入
	fileLogger := logrus.New()
	fileLogger.SetFormatter(&logrus.JSONFormatter{
		PrettyPrint:     false,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	fileLogger.SetOutput(io.Discard)
	fileLogger.SetLevel(logrus.InfoLevel)

	defaultLogger = &Logger{
		Logger:     consoleLogger,
		fileLogger: fileLogger,
	}
}

// Setup 设置日志级别；dir 非空时使用 lumberjack 写入轮转日志文件
func Setup(dir, level string) {
	if level != "" {
		if lvl, err := logrus.ParseLevel(level); err == nil {
			defaultLogger.Logger.SetLevel(lvl)
			defaultLogger.fileLogger.SetLevel(lvl)
		} else {
			defaultLogger.Logger.Warnf("无法解析日志级别 %q: %v", level, err)
		}
	}

	if dir == "" {
		return
	}

	// 创建日志目录
	if err := os.MkdirAll(dir, 0755); err != nil {
		defaultLogger.Logger.Errorf("无法创建日志目录: %v", err)
		return
	}

	// 使用lumberjack进行日志轮转
	logFile := &lumberjack.Logger{
		Filename:   filepath.Join(dir, "session-brief.log"),
		MaxSize:    10,
		MaxBackups: 10,
		MaxAge:     30,
		Compress:   true,
	}
	defaultLogger.fileLogger.SetOutput(logFile)
}

// SetVerbose 开启后控制台输出 debug 日志
func SetVerbose(verbose bool) {
	if verbose {
		defaultLogger.Logger.SetLevel(logrus.DebugLevel)
	}
}

// SetOutput 替换控制台输出，测试中使用
func SetOutput(w io.Writer) {
	defaultLogger.Logger.SetOutput(w)
}

func Infof(format string, args ...any) {
	defaultLogger.Logger.Infof(format, args...)
	defaultLogger.fileLogger.Infof(format, args...)
}

func Warnf(format string, args ...any) {
	defaultLogger.Logger.Warnf(format, args...)
	defaultLogger.fileLogger.Warnf(format, args...)
}

func Errorf(format string, args ...any) {
	defaultLogger.Logger.Errorf(format, args...)
	defaultLogger.fileLogger.Errorf(format, args...)
}

func Fatalf(format string, args ...any) {
	defaultLogger.fileLogger.Errorf(format, args...)
	defaultLogger.Logger.Fatalf(format, args...)
}

func Debugf(format string, args ...any) {
	defaultLogger.Logger.Debugf(format, args...)
	defaultLogger.fileLogger.Debugf(format, args...)
}
