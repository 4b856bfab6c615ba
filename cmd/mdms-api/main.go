// @title         MDMS API
// @version       0.1.0
// @description   Civic complaint intake: batch media upload, tickets and routing

package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"mdms/internal/modkit/httpkit"
	"mdms/internal/modkit/repokit"
	"mdms/internal/platform/config"
	"mdms/internal/platform/logger"
	phttp "mdms/internal/platform/net/http"
	"mdms/internal/platform/net/middleware"
	"mdms/internal/platform/store"
	"mdms/internal/platform/store/memtx"
	"mdms/internal/platform/store/migrate"

	"mdms/internal/services/api"

	"github.com/joho/godotenv"
)

func main() {
	// a missing .env is fine, the process env wins either way
	_ = godotenv.Load()

	// service-scoped config for HTTP etc (CORE_API_*)
	root := config.New()
	apiCfg := root.Prefix("CORE_API_")
	pgCfg := root.Prefix("SERVICE_PGSQL_")      // pgCfg lives under SERVICE_PGSQL_*
	chCfg := root.Prefix("SERVICE_CLICKHOUSE_") // chCfg lives under SERVICE_CLICKHOUSE_*

	// bring up logging early
	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := []store.Option{store.WithLogger(*l)}
	memory := apiCfg.MayBool("MEMORY", false)
	if memory {
		opts = append(opts, store.WithMemory(memtx.New()))
		l.Warn().Msg("running on the in process store, nothing survives a restart")
	}

	dbURL := ""
	if !memory {
		dbURL = pgCfg.MustString("DBURL")
	}
	chOn, chURL := chCfg.MayBool("ENABLED", false), ""
	if chOn {
		chURL = chCfg.MustString("DBURL")
	}
	st, err := store.Open(ctx, store.Config{
		AppName: "mdms-api",
		PG: store.PGConfig{
			Enabled:     !memory,
			URL:         dbURL,
			MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 8)),
			SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
			LogSQL:      pgCfg.MayBool("LOG_SQL", false),
		},
		CH: store.CHConfig{
			Enabled:    chOn,
			URL:        chURL,
			ClientName: "mdms",
			ClientTag:  "api",
		},
	}, opts...)
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	// every configured backend must answer before we take traffic
	repokit.MustGuard(ctx, st)

	if !memory && apiCfg.MayBool("MIGRATE", true) {
		applied, err := migrate.Up(ctx, st.PG)
		if err != nil {
			l.Panic().Err(err).Msg("migrations failed")
		}
		l.Info().Strs("applied", applied).Msg("migrations done")
	}

	// http server (reads CORE_API_PORT / CORE_API_ADDR)
	srv := phttp.NewServer(apiCfg)

	_, err = api.Mount(ctx, srv.Router(), api.Options{
		Config:         root,
		Store:          st,
		Logger:         l,
		EnableSwagger:  apiCfg.MayBool("SWAGGER", true),
		EnableProfiler: apiCfg.MayBool("PROFILER", false),
		AuthorityFile:  root.Prefix("CORE_").MayString("AUTHORITY_FILE", ""),
		Stack: httpkit.StackOptions{
			CORS:    middleware.CORSOptions{AllowedOrigins: apiCfg.MayCSV("CORS_ORIGINS", nil)},
			Timeout: apiCfg.MayDuration("REQUEST_TIMEOUT", 5*time.Minute),
		},
	})
	if err != nil {
		l.Panic().Err(err).Msg("api wiring failed")
	}

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			l.Error().Err(err).Msg("http shutdown")
		}
	}()

	if err := srv.Run(ctx); err != nil {
		l.Panic().Err(err).Msg("http server stopped")
	}
}
