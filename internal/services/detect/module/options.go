package module

import (
	"time"

	"mdms/internal/platform/config"
)

// Backends
const (
	BackendYOLO   = "yolo"
	BackendVision = "vision"
)

// Options holds configuration settings for the detect module
type Options struct {
	Backend       string
	URL           string
	Timeout       time.Duration
	MinConfidence float64
	ImageMaxSide  int
	JPEGQuality   int
	MaxRetries    int

	OpenAIKey   string
	OpenAIModel string
	OpenAIURL   string
}

// FromConfig extracts Options from the given config.Conf
func FromConfig(cfg config.Conf) Options {
	df := cfg.Prefix("CORE_DETECT_")
	return Options{
		Backend:       df.MayEnum("BACKEND", BackendYOLO, BackendYOLO, BackendVision),
		URL:           df.MayString("URL", "http://localhost:8000"),
		Timeout:       df.MayDuration("TIMEOUT", 30*time.Second),
		MinConfidence: df.MayFloat64("MIN_CONFIDENCE", 0.25),
		ImageMaxSide:  df.MayInt("IMAGE_MAX_SIDE", 1280),
		JPEGQuality:   df.MayInt("JPEG_QUALITY", 85),
		MaxRetries:    df.MayInt("MAX_RETRIES", 2),
		OpenAIKey:     df.MayString("OPENAI_API_KEY", ""),
		OpenAIModel:   df.MayString("OPENAI_MODEL", "gpt-4o"),
		OpenAIURL:     df.MayString("OPENAI_BASE_URL", ""),
	}
}
