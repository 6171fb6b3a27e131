package logger

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log file names, one per level.
const (
	InfoFile    = "info.log"
	WarningFile = "warning.log"
	ErrorFile   = "error.log"
)

// Logger provides leveled logging (debug/info/warning/error) to per-level files and the console.
type Logger struct {
	zap    *zap.Logger
	sugar  *zap.SugaredLogger
	logDir string
	files  []*os.File
}

// NewLogger creates a Logger writing under logDir. mode "release" selects the
// JSON production encoder for the console; anything else uses the colored
// development encoder.
func NewLogger(logDir, mode string) (*Logger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	l := &Logger{logDir: logDir}

	var consoleEncoder zapcore.Encoder
	consoleLevel := zapcore.DebugLevel
	if mode == "release" {
		consoleEncoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
		consoleLevel = zapcore.InfoLevel
	} else {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		consoleEncoder = zapcore.NewConsoleEncoder(cfg)
	}

	fileEncoder := zapcore.NewConsoleEncoder(zap.NewProductionEncoderConfig())

	cores := []zapcore.Core{
		zapcore.NewCore(consoleEncoder, zapcore.Lock(os.Stdout), consoleLevel),
	}

	levels := []struct {
		name  string
		match zap.LevelEnablerFunc
	}{
		{InfoFile, func(lvl zapcore.Level) bool { return lvl == zapcore.InfoLevel }},
		{WarningFile, func(lvl zapcore.Level) bool { return lvl == zapcore.WarnLevel }},
		{ErrorFile, func(lvl zapcore.Level) bool { return lvl >= zapcore.ErrorLevel }},
	}
	for _, lv := range levels {
		f, err := l.openLogFile(filepath.Join(logDir, lv.name))
		if err != nil {
			l.closeFiles()
			return nil, err
		}
		cores = append(cores, zapcore.NewCore(fileEncoder, zapcore.AddSync(f), lv.match))
	}

	l.zap = zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1))
	l.sugar = l.zap.Sugar()
	return l, nil
}

// NewNop returns a Logger that discards everything. Used by tests and tools.
func NewNop() *Logger {
	z := zap.NewNop()
	return &Logger{zap: z, sugar: z.Sugar()}
}

// openLogFile opens or creates a log file for appending.
func (l *Logger) openLogFile(filename string) (*os.File, error) {
	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", filename, err)
	}
	l.files = append(l.files, file)
	return file, nil
}

func (l *Logger) closeFiles() {
	for _, f := range l.files {
		f.Close()
	}
	l.files = nil
}

// Zap exposes the structured logger for components that log with fields.
func (l *Logger) Zap() *zap.Logger {
	return l.zap
}

// Debug writes a formatted debug-level log entry.
func (l *Logger) Debug(format string, v ...interface{}) {
	l.sugar.Debugf(format, v...)
}

// Info writes a formatted info-level log entry.
func (l *Logger) Info(format string, v ...interface{}) {
	l.sugar.Infof(format, v...)
}

// Warning writes a formatted warning-level log entry.
func (l *Logger) Warning(format string, v ...interface{}) {
	l.sugar.Warnf(format, v...)
}

// Error writes a formatted error-level log entry.
func (l *Logger) Error(format string, v ...interface{}) {
	l.sugar.Errorf(format, v...)
}

// Dir returns the directory holding the per-level log files.
func (l *Logger) Dir() string {
	return l.logDir
}

// CleanLogs truncates the specified log file.
func (l *Logger) CleanLogs(fileName string) error {
	if l.logDir == "" {
		return nil
	}
	filePath := filepath.Join(l.logDir, filepath.Base(fileName))
	if err := os.Truncate(filePath, 0); err != nil {
		l.Error("Error truncating log file %s: %v", fileName, err)
		return err
	}

	l.Info("Log file %s has been cleared", fileName)
	return nil
}

// Sync flushes buffered entries and closes the log files.
func (l *Logger) Sync() {
	_ = l.zap.Sync()
	l.closeFiles()
}
