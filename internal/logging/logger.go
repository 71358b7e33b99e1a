package logging

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileName is the service's own log file inside the log directory.
const FileName = "sitewatch.log"

// NewLogger returns a JSON logger writing to a rotated file in logDir. The
// rotator is returned so the service can start a fresh file on demand.
func NewLogger(logDir string) (*zap.Logger, *lumberjack.Logger, error) {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, nil, err
	}
	rot := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, FileName),
		MaxSize:    10, // MB
		MaxBackups: 5,
		MaxAge:     14, // days
		Compress:   true,
	}
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(cfg), zapcore.AddSync(rot), zap.InfoLevel)
	return zap.New(core, zap.AddCaller()), rot, nil
}

// backupPattern matches lumberjack's rotated copies of FileName, plain or
// compressed.
var backupPattern = strings.TrimSuffix(FileName, filepath.Ext(FileName)) + "-*" + filepath.Ext(FileName) + "*"

// Purge starts a fresh log file and deletes every rotated backup, so no
// entry written before the call survives on disk. Compression of the backup
// runs in the background; repeating the sweep until it comes back empty
// catches a .gz that appears after the first pass.
func Purge(rot *lumberjack.Logger) error {
	if err := rot.Rotate(); err != nil {
		return err
	}
	dir := filepath.Dir(rot.Filename)
	for pass := 0; pass < 5; pass++ {
		matches, err := filepath.Glob(filepath.Join(dir, backupPattern))
		if err != nil {
			return err
		}
		if len(matches) == 0 {
			return nil
		}
		var errs error
		for _, m := range matches {
			if err := os.Remove(m); err != nil && !errors.Is(err, fs.ErrNotExist) {
				errs = multierr.Append(errs, err)
			}
		}
		if errs != nil {
			return errs
		}
		time.Sleep(10 * time.Millisecond)
	}
	return nil
}
