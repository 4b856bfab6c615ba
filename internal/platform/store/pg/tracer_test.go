package pg

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

func TestCompact(t *testing.T) {
	t.Parallel()

	cases := []struct{ in, want string }{
		{"select 1", "select 1"},
		{"  select   1  ", " select 1 "},
		{"SELECT\t*\nFROM\r\ttickets WHERE  id =  $1", "SELECT * FROM tickets WHERE id = $1"},
		{"", ""},
	}
	for i, c := range cases {
		if got := compact(c.in); got != c.want {
			t.Fatalf("case %d: compact(%q) = %q, want %q", i, c.in, got, c.want)
		}
	}
}

func TestTracer_LevelsAndRedaction(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	tr := Tracer(zerolog.New(&buf))

	tr.OnQuery(context.Background(), QueryEvent{
		SQL:       "insert into media_blobs (media_id, data)\n values ($1, $2)",
		Args:      []any{"m1", make([]byte, 2048)},
		ElapsedUS: 1500,
	})
	tr.OnQuery(context.Background(), QueryEvent{
		SQL:  "select 1",
		Slow: true,
		Err:  errors.New("boom"),
	})

	dec := json.NewDecoder(&buf)
	var first, second struct {
		Level     string  `json:"level"`
		ElapsedMS float64 `json:"elapsed_ms"`
		SQL       string  `json:"sql"`
		Args      []any   `json:"args"`
		Error     string  `json:"error"`
		Component string  `json:"component"`
	}
	if err := dec.Decode(&first); err != nil {
		t.Fatalf("decode first: %v", err)
	}
	if err := dec.Decode(&second); err != nil {
		t.Fatalf("decode second: %v", err)
	}

	if first.Level != "info" || first.ElapsedMS != 1.5 || first.Component != "pg" {
		t.Fatalf("first line = %+v", first)
	}
	if first.SQL != "insert into media_blobs (media_id, data) values ($1, $2)" {
		t.Fatalf("sql not compacted: %q", first.SQL)
	}
	if len(first.Args) != 2 || first.Args[1] != "<2048 bytes>" {
		t.Fatalf("blob arg not redacted: %v", first.Args)
	}
	if second.Level != "warn" || second.Error != "boom" {
		t.Fatalf("second line = %+v", second)
	}
}

func TestRedactArgs_PassThrough(t *testing.T) {
	t.Parallel()

	if got := redactArgs("x"); got != "x" {
		t.Fatalf("non slice args should pass through, got %v", got)
	}
}
