// Package logging keeps the service's log files on disk and attaches them to zap.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Tee returns a logger that writes to base and also to w as JSON lines
func Tee(base *zap.Logger, w zapcore.WriteSyncer) *zap.Logger {
	enc := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	fileCore := zapcore.NewCore(enc, w, zap.InfoLevel)
	return base.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return zapcore.NewTee(c, fileCore)
	}))
}

// Attach opens <name>.log in files and tees the global zap logger into it.
// The returned func flushes and closes the file.
func Attach(files *Files, name string) (func(), error) {
	f, err := files.Open(name)
	if err != nil {
		return nil, err
	}
	logger := Tee(zap.L(), zapcore.AddSync(f))
	restore := zap.ReplaceGlobals(logger)
	return func() {
		_ = logger.Sync()
		restore()
		f.Close()
	}, nil
}
