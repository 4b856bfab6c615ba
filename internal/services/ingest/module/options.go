package module

import (
	"time"

	"mdms/internal/platform/config"
	"mdms/internal/services/ingest/service"
)

// Options holds configuration settings for the ingest module
type Options struct {
	MaxBatch     int
	MaxFileBytes int64
	MaxBodyBytes int64
	Workers      int
	FileTimeout  time.Duration
	DBTimeout    time.Duration
	Retries      int
	RetryBase    time.Duration
	LockTimeout  time.Duration // bounds advisory lock waits in the per file tx, zero leaves the server default
}

// FromConfig reads the ingest options with the CORE_INGEST_ prefix
func FromConfig(cfg config.Conf) Options {
	in := cfg.Prefix("CORE_INGEST_")
	o := Options{
		MaxBatch:     in.MayInt("MAX_BATCH", service.DefaultMaxBatch),
		MaxFileBytes: int64(in.MayInt("MAX_FILE_BYTES", service.DefaultMaxFileBytes)),
		Workers:      in.MayInt("WORKERS", service.DefaultWorkers),
		FileTimeout:  in.MayDuration("FILE_TIMEOUT", 2*time.Minute),
		DBTimeout:    in.MayDuration("DB_TIMEOUT", 15*time.Second),
		Retries:      in.MayInt("RETRIES", service.DefaultRetries),
		RetryBase:    in.MayDuration("RETRY_BASE", 50*time.Millisecond),
		LockTimeout:  in.MayDuration("LOCK_TIMEOUT", 5*time.Second),
	}
	// files past the batch limit are still read so they can be reported
	o.MaxBodyBytes = int64(in.MayInt("MAX_BODY_BYTES", int(o.MaxFileBytes)*(o.MaxBatch+1)))
	return o
}

func (o Options) service() service.Config {
	return service.Config{
		MaxBatch:     o.MaxBatch,
		MaxFileBytes: o.MaxFileBytes,
		Workers:      o.Workers,
		FileTimeout:  o.FileTimeout,
		DBTimeout:    o.DBTimeout,
		Retries:      o.Retries,
		RetryBase:    o.RetryBase,
	}
}
