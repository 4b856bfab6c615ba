package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"

	kit "mdms/internal/platform/testkit"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]string{
		"trace":   "trace",
		"INFO":    "info",
		"warning": "warn",
		"error":   "error",
		"":        "debug",
		" what ":  "debug",
	}
	for in, want := range cases {
		if got := strings.ToLower(parseLevel(in).String()); got != want {
			t.Fatalf("parseLevel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestInitAndScopedLoggers(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{
		Level:        "info",
		Format:       "console",
		Service:      "mdms-api",
		Writer:       &buf,
		StaticFields: map[string]string{"region": "test"},
	})

	Named("ingest").Info().Msg("named-line")

	ctx := WithBatch(WithRequest(context.Background(), "req-42"), "batch-7")
	C(ctx).Info().Int("file_index", 2).Msg("file-line")

	// C on an empty context must not add ids
	v := C(context.Background()).Sample(&zerolog.BasicSampler{N: 1})
	v.Info().Msg("bare-line")

	out := buf.String()
	for _, needle := range []string{"named-line", "ingest", "file-line", "req-42", "batch-7", "mdms-api", "region="} {
		kit.MustContain(t, out, needle)
	}
}

func TestWithRequestIgnoresEmpty(t *testing.T) {
	ctx := context.Background()
	if WithRequest(ctx, "") != ctx || WithBatch(ctx, "") != ctx {
		t.Fatalf("empty ids should return ctx unchanged")
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "WARN")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("LOG_SERVICE", "mdms-import")
	t.Setenv("LOG_CALLER", "1")
	t.Setenv("LOG_SAMPLE_EVERY", "3")

	opt := FromEnv()
	if opt.Level != "warn" || opt.Format != "json" || opt.Service != "mdms-import" {
		t.Fatalf("FromEnv = %+v", opt)
	}
	if !opt.WithCaller || opt.SampleEvery != 3 {
		t.Fatalf("FromEnv caller/sample = %+v", opt)
	}
}
