package util

import (
	"log/slog"
	"time"
)

// Trace 记录一段代码的耗时，用法: defer util.Trace("name")()
func Trace(name string) func() {
	start := time.Now()
	return func() {
		slog.Debug("trace", "name", name, "elapsed", time.Since(start))
	}
}
