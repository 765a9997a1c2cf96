package main

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/MrWong99/voxbook/internal/config"
)

// newLogger builds the process logger. Output goes to stderr and, when
// server.log_file is set, to a rotating file as well. The returned func
// closes the file.
func newLogger(srv config.ServerConfig, level slog.Leveler) (*slog.Logger, func()) {
	var w io.Writer = os.Stderr
	closeFn := func() {}
	if lf := srv.LogFile; lf != nil {
		file := &lumberjack.Logger{
			Filename:   lf.Path,
			MaxSize:    lf.MaxSizeMB,
			MaxBackups: lf.MaxBackups,
			MaxAge:     lf.MaxAgeDays,
			Compress:   lf.Compress,
		}
		w = io.MultiWriter(os.Stderr, file)
		closeFn = func() { _ = file.Close() }
	}

	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if srv.LogFormat == config.LogFormatJSON {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h), closeFn
}
