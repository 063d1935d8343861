package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks implements every hook interface by writing debug-level
// structured log lines. It is what `chartpad --verbose` installs.
type LogHooks struct {
	logger *log.Logger
}

var (
	_ SessionHooks = (*LogHooks)(nil)
	_ LoadHooks    = (*LogHooks)(nil)
	_ CacheHooks   = (*LogHooks)(nil)
	_ HTTPHooks    = (*LogHooks)(nil)
)

// NewLogHooks returns hooks that log to logger, or to the default logger
// when nil.
func NewLogHooks(logger *log.Logger) *LogHooks {
	if logger == nil {
		logger = log.Default()
	}
	return &LogHooks{logger: logger.WithPrefix("obs")}
}

// Install registers h for every hook category.
func (h *LogHooks) Install() {
	SetSessionHooks(h)
	SetLoadHooks(h)
	SetCacheHooks(h)
	SetHTTPHooks(h)
}

func (h *LogHooks) OnOperation(sessionID, op string, applied bool) {
	h.logger.Debug("operation", "session", sessionID, "op", op, "applied", applied)
}

func (h *LogHooks) OnReconcile(sessionID, chartType string, repaired int) {
	h.logger.Debug("reconcile", "session", sessionID, "chart", chartType, "repaired", repaired)
}

func (h *LogHooks) OnLoadStart(_ context.Context, source string) {
	h.logger.Debug("load start", "source", source)
}

func (h *LogHooks) OnLoadComplete(_ context.Context, source string, rows int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("load failed", "source", source, "duration", d, "err", err)
		return
	}
	h.logger.Debug("load complete", "source", source, "rows", rows, "duration", d)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *LogHooks) OnRequest(_ context.Context, method, route string) {
	h.logger.Debug("request", "method", method, "route", route)
}

func (h *LogHooks) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	h.logger.Debug("response", "method", method, "route", route, "status", status, "duration", d)
}
