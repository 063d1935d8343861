package observability

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	s := NoopSessionHooks{}
	s.OnOperation("id", "rename_column", false)
	s.OnReconcile("id", "line", 2)

	l := NoopLoadHooks{}
	l.OnLoadStart(ctx, "finance.csv")
	l.OnLoadComplete(ctx, "finance.csv", 3, time.Second, nil)

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "dataset")
	c.OnCacheMiss(ctx, "dataset")
	c.OnCacheSet(ctx, "dataset", 1024)

	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "GET", "/api/v1/sessions/{id}")
	h.OnResponse(ctx, "GET", "/api/v1/sessions/{id}", 200, time.Second)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()

	if _, ok := Session().(NoopSessionHooks); !ok {
		t.Error("Session() should return NoopSessionHooks by default")
	}
	if _, ok := Load().(NoopLoadHooks); !ok {
		t.Error("Load() should return NoopLoadHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	customSession := &testSessionHooks{}
	SetSessionHooks(customSession)
	if Session() != customSession {
		t.Error("SetSessionHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	Reset()
	if _, ok := Session().(NoopSessionHooks); !ok {
		t.Error("Reset() should restore NoopSessionHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()
	defer Reset()

	custom := &testSessionHooks{}
	SetSessionHooks(custom)
	SetSessionHooks(nil)

	if Session() != custom {
		t.Error("SetSessionHooks(nil) should be ignored")
	}
}

func TestLogHooks(t *testing.T) {
	Reset()
	defer Reset()

	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})
	NewLogHooks(logger).Install()

	Session().OnOperation("abc", "rename_row", false)
	Load().OnLoadComplete(context.Background(), "x.csv", 0, time.Millisecond, errors.New("boom"))
	HTTP().OnResponse(context.Background(), "GET", "/healthz", 200, time.Millisecond)

	out := buf.String()
	for _, want := range []string{"rename_row", "applied=false", "load failed", "boom", "status=200"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

type testSessionHooks struct{ NoopSessionHooks }
type testCacheHooks struct{ NoopCacheHooks }
