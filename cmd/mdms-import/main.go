// Command mdms-import submits every file under a directory through the batch gateway
package main

import (
	"context"
	"encoding/json"
	"flag"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"mdms/internal/modkit/repokit"
	"mdms/internal/platform/config"
	"mdms/internal/platform/logger"
	"mdms/internal/platform/store"
	"mdms/internal/platform/store/memtx"
	"mdms/internal/platform/store/migrate"

	"mdms/internal/services/api"
	ingest "mdms/internal/services/ingest/domain"

	"github.com/joho/godotenv"
)

// summary is printed to stdout when the run ends
type summary struct {
	Files      int      `json:"files"`
	Batches    int      `json:"batches"`
	Accepted   int      `json:"accepted"`
	Duplicates int      `json:"duplicates"`
	Rejected   int      `json:"rejected"`
	Tickets    []string `json:"tickets"`
}

func main() {
	_ = godotenv.Load()

	var (
		fDir    = flag.String("dir", "", "directory of photos and videos to import")
		fBatch  = flag.Int("batch", 20, "files per batch")
		fMemory = flag.Bool("memory", false, "use the in process store (dry runs)")
	)
	flag.Parse()

	l := logger.Get()
	if *fDir == "" {
		l.Fatal().Msg("-dir is required")
	}
	if *fBatch < 1 {
		*fBatch = 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := config.New()
	pgCfg := root.Prefix("SERVICE_PGSQL_")
	chCfg := root.Prefix("SERVICE_CLICKHOUSE_")

	opts := []store.Option{store.WithLogger(*l)}
	dbURL := ""
	if *fMemory {
		opts = append(opts, store.WithMemory(memtx.New()))
	} else {
		dbURL = pgCfg.MustString("DBURL")
	}
	chOn, chURL := chCfg.MayBool("ENABLED", false), ""
	if chOn {
		chURL = chCfg.MustString("DBURL")
	}
	st, err := store.Open(ctx, store.Config{
		AppName: "mdms-import",
		PG: store.PGConfig{
			Enabled:  !*fMemory,
			URL:      dbURL,
			MaxConns: int32(pgCfg.MayInt("MAX_CONNS", 4)),
		},
		CH: store.CHConfig{
			Enabled:    chOn,
			URL:        chURL,
			ClientName: "mdms",
			ClientTag:  "import",
		},
	}, opts...)
	if err != nil {
		l.Fatal().Err(err).Msg("store.Open failed")
	}
	defer func() { _ = st.Close(context.Background()) }()

	if !*fMemory {
		if p, ok := st.PG.(store.Pinger); ok {
			repokit.MustPing(ctx, "pg", p)
		}
		if _, err := migrate.Up(ctx, st.PG); err != nil {
			l.Fatal().Err(err).Msg("migrations failed")
		}
	}

	stack, err := api.Build(ctx, api.Options{
		Config:        root,
		Store:         st,
		Logger:        l,
		AuthorityFile: root.Prefix("CORE_").MayString("AUTHORITY_FILE", ""),
	})
	if err != nil {
		l.Fatal().Err(err).Msg("wiring failed")
	}

	paths, err := files(*fDir)
	if err != nil {
		l.Fatal().Err(err).Str("dir", *fDir).Msg("walk failed")
	}

	sum := summary{Files: len(paths), Tickets: []string{}}
	seen := map[string]bool{}
	for start := 0; start < len(paths); start += *fBatch {
		if ctx.Err() != nil {
			l.Warn().Int("done", start).Msg("interrupted")
			break
		}
		end := min(start+*fBatch, len(paths))
		batch := make([]ingest.Upload, 0, end-start)
		for _, p := range paths[start:end] {
			data, err := os.ReadFile(p)
			if err != nil {
				l.Error().Err(err).Str("path", p).Msg("read failed")
				continue
			}
			batch = append(batch, ingest.Upload{FileName: filepath.Base(p), Data: data, Size: int64(len(data))})
		}
		if len(batch) == 0 {
			continue
		}

		res, err := stack.Gateway.SubmitBatch(ctx, batch)
		if err != nil {
			l.Fatal().Err(err).Int("batch", sum.Batches).Msg("batch failed")
		}
		sum.Batches++
		sum.Accepted += len(res.Accepted)
		sum.Duplicates += res.DuplicatesFound
		sum.Rejected += len(res.Rejected) - res.DuplicatesFound
		for _, r := range res.Rejected {
			if r.Reason != ingest.ReasonDuplicate {
				l.Warn().Str("file", r.FileName).Str("reason", string(r.Reason)).Msg("file rejected")
			}
		}
		for _, t := range res.TicketsCreated {
			if id := t.ID.String(); !seen[id] {
				seen[id] = true
				sum.Tickets = append(sum.Tickets, id)
			}
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(sum)
}

// files lists regular files under dir in lexical order, dot files are skipped
func files(dir string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Name() != "." && len(d.Name()) > 0 && d.Name()[0] == '.' && p != dir {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			out = append(out, p)
		}
		return nil
	})
	sort.Strings(out)
	return out, err
}
