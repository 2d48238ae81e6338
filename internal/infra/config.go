package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is an immutable snapshot of the application configuration, loaded
// once from environment variables. Per-content-type sub-configs are passed
// explicitly to the components that need them instead of being read from a
// shared mutable object.
type Config struct {
	AppEnv           string
	Port             string
	DatabaseURL      string
	StoragePath      string
	StorageBaseURL   string
	GeoIPDBPath      string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
	WorkerCount      int
	AllowedOrigins   []string

	NLU    NLUConfig
	Google GoogleConfig
	Qwen   QwenConfig
	Image  ImageConfig
	Video  VideoConfig
	Audio  AudioConfig
}

// NLUConfig configures the auxiliary language model used for intent
// extraction.
type NLUConfig struct {
	APIKey          string
	BaseURL         string
	Model           string
	Temperature     float64
	FallbackEnabled bool
}

// Configured reports whether the NLU service can be called at all.
// Placeholder keys (left as "<your-key>") count as unconfigured.
func (c NLUConfig) Configured() bool {
	return credentialPresent(c.APIKey) && c.BaseURL != ""
}

// GoogleConfig holds shared Google API access settings.
type GoogleConfig struct {
	APIKey   string
	BaseURL  string
	ProxyURL string
}

// Configured reports whether Google providers have usable credentials.
func (c GoogleConfig) Configured() bool {
	return credentialPresent(c.APIKey)
}

// QwenConfig holds DashScope access settings for the alternate image
// provider.
type QwenConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Configured reports whether the Qwen provider has usable credentials.
func (c QwenConfig) Configured() bool {
	return credentialPresent(c.APIKey)
}

// ImageConfig is the image generation sub-config.
type ImageConfig struct {
	Enabled            bool
	ActiveProvider     string
	Model              string
	DefaultAspectRatio string
}

// VideoConfig is the video generation sub-config.
type VideoConfig struct {
	Enabled            bool
	ActiveProvider     string
	Model              string
	DefaultAspectRatio string
	DefaultResolution  string
	DefaultDuration    int
}

// AudioConfig is the audio generation sub-config.
type AudioConfig struct {
	Enabled        bool
	ActiveProvider string
	Model          string
}

// LoadConfig loads configuration from environment variables and applies
// defaults where sensible.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:           getEnv("APP_ENV", "development"),
		Port:             getEnv("PORT", "8080"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		StoragePath:      getEnv("STORAGE_PATH", "./storage"),
		StorageBaseURL:   getEnv("STORAGE_BASE_URL", "http://localhost:8080/static"),
		GeoIPDBPath:      os.Getenv("GEOIP_DB_PATH"),
		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		WorkerCount:      getEnvInt("WORKER_CONCURRENCY", 2),
		AllowedOrigins:   splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),

		NLU: NLUConfig{
			APIKey:          os.Getenv("NLU_API_KEY"),
			BaseURL:         getEnv("NLU_BASE_URL", "https://api.openai.com/v1"),
			Model:           getEnv("NLU_MODEL", "gpt-4o-mini"),
			Temperature:     getEnvFloat("NLU_TEMPERATURE", 0.1),
			FallbackEnabled: getEnvBool("NLU_FALLBACK_ENABLED", true),
		},
		Google: GoogleConfig{
			APIKey:   os.Getenv("GOOGLE_API_KEY"),
			BaseURL:  getEnv("GOOGLE_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
			ProxyURL: os.Getenv("GOOGLE_PROXY_URL"),
		},
		Qwen: QwenConfig{
			APIKey:  os.Getenv("QWEN_API_KEY"),
			BaseURL: getEnv("QWEN_BASE_URL", "https://dashscope-intl.aliyuncs.com/api/v1"),
			Model:   getEnv("QWEN_IMAGE_MODEL", "qwen-image-plus"),
		},
		Image: ImageConfig{
			Enabled:            getEnvBool("IMAGE_ENABLED", true),
			ActiveProvider:     os.Getenv("IMAGE_ACTIVE_PROVIDER"),
			Model:              getEnv("IMAGE_MODEL", "gemini-2.5-flash-image"),
			DefaultAspectRatio: getEnv("IMAGE_ASPECT_RATIO", "16:9"),
		},
		Video: VideoConfig{
			Enabled:            getEnvBool("VIDEO_ENABLED", true),
			ActiveProvider:     os.Getenv("VIDEO_ACTIVE_PROVIDER"),
			Model:              getEnv("VIDEO_MODEL", "veo-3.1-generate-preview"),
			DefaultAspectRatio: getEnv("VIDEO_ASPECT_RATIO", "16:9"),
			DefaultResolution:  getEnv("VIDEO_RESOLUTION", "720p"),
			DefaultDuration:    getEnvInt("VIDEO_DURATION_SECONDS", 8),
		},
		Audio: AudioConfig{
			Enabled:        getEnvBool("AUDIO_ENABLED", true),
			ActiveProvider: os.Getenv("AUDIO_ACTIVE_PROVIDER"),
			Model:          getEnv("AUDIO_MODEL", "lyria-realtime-exp"),
		},
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

// credentialPresent filters out empty and placeholder credentials such as
// "<your-api-key>".
func credentialPresent(key string) bool {
	key = strings.TrimSpace(key)
	return key != "" && !strings.HasPrefix(key, "<")
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
