package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port        string `env:"PORT" envDefault:"3000"`
	AdminKey    string `env:"ADMIN_API_KEY,required"`
	Auth0Domain string `env:"AUTH0_DOMAIN"`

	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBUser     string `env:"DB_USER,required"`
	DBPassword string `env:"DB_PASSWORD,required"`
	DBName     string `env:"DB_NAME,required"`
	DBPort     string `env:"DB_PORT" envDefault:"5432"`

	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`

	OpenRouterAPIKey  string  `env:"OPENROUTER_API_KEY"`
	OpenRouterBaseURL string  `env:"OPENROUTER_BASE_URL" envDefault:"https://openrouter.ai/api/v1"`
	SummaryModel      string  `env:"SUMMARY_MODEL" envDefault:"anthropic/claude-3.5-haiku"`
	AnalysisModel     string  `env:"ANALYSIS_MODEL" envDefault:"anthropic/claude-sonnet-4"`
	MonthlyBudgetUSD  float64 `env:"MONTHLY_BUDGET_USD" envDefault:"50"`

	SerperAPIKey    string `env:"SERPER_API_KEY"`
	RedditUserAgent string `env:"REDDIT_USER_AGENT" envDefault:"arxiv-pulse/1.0"`

	ArxivCategories []string `env:"ARXIV_CATEGORIES" envSeparator:"," envDefault:"cs.AI,cs.LG,cs.CL"`

	EnqueueStagger    time.Duration `env:"ENQUEUE_STAGGER" envDefault:"30s"`
	WorkerConcurrency int           `env:"WORKER_CONCURRENCY" envDefault:"5"`

	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3001"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config from environment: %w", err)
	}
	return cfg, nil
}
