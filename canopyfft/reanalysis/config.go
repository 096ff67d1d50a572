package reanalysis

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// 環境変数からの設定
type EnvConfig struct {
	BaseURL     string        // ERA_API_URL
	APIKey      string        // ERA_API_KEY
	HTTPTimeout time.Duration // ERA_HTTP_TIMEOUT
}

// .env (あれば) と環境変数から設定を読み込みます。
func LoadEnv() (EnvConfig, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debugf("no .env file loaded: %v", err)
	}

	cfg := EnvConfig{
		BaseURL: getenvDefault("ERA_API_URL", DefaultBaseURL),
		APIKey:  strings.TrimSpace(os.Getenv("ERA_API_KEY")),
	}

	timeoutStr := getenvDefault("ERA_HTTP_TIMEOUT", "60s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return EnvConfig{}, fmt.Errorf("invalid ERA_HTTP_TIMEOUT %q: %w", timeoutStr, err)
	}
	cfg.HTTPTimeout = timeout

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
