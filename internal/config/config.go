package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds the application's configuration.
type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Database struct {
		URL string `yaml:"url"`
	} `yaml:"database"`
	Embedding struct {
		URL            string `yaml:"url"`
		APIKey         string `yaml:"api_key"`
		Model          string `yaml:"model"`
		TimeoutSeconds int64  `yaml:"timeout_seconds"`
	} `yaml:"embedding"`
	Completion struct {
		APIKey         string `yaml:"api_key"`
		Model          string `yaml:"model"`
		TimeoutSeconds int64  `yaml:"timeout_seconds"`
	} `yaml:"completion"`
	Routing struct {
		TopK                 int   `yaml:"top_k"`
		Workers              int   `yaml:"workers"`
		QueueSize            int   `yaml:"queue_size"`
		CorpusTimeoutSeconds int64 `yaml:"corpus_timeout_seconds"`
	} `yaml:"routing"`
	Prototypes struct {
		Dir string `yaml:"dir"`
	} `yaml:"prototypes"`
	Alerts struct {
		Enabled          bool   `yaml:"enabled"`
		TelegramBotToken string `yaml:"telegram_bot_token"`
		TelegramChatID   int64  `yaml:"telegram_chat_id"`
	} `yaml:"alerts"`
}

// LoadConfig reads configuration from the specified YAML file. Secrets and
// connection strings can be overridden from the environment so the YAML file
// stays committable.
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}

	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	envOverride(&config.Database.URL, "DATABASE_URL")
	envOverride(&config.Embedding.URL, "EMBEDDING_URL")
	envOverride(&config.Embedding.APIKey, "OPENAI_API_KEY")
	envOverride(&config.Completion.APIKey, "ANTHROPIC_API_KEY")
	envOverride(&config.Prototypes.Dir, "PROTOTYPES_DIR")
	envOverride(&config.Alerts.TelegramBotToken, "TELEGRAM_BOT_TOKEN")
	envOverrideInt64(&config.Alerts.TelegramChatID, "TELEGRAM_CHAT_ID")

	config.applyDefaults()

	return config, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8000"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-ada-002"
	}
	if c.Embedding.TimeoutSeconds <= 0 {
		c.Embedding.TimeoutSeconds = 30
	}
	if c.Completion.Model == "" {
		c.Completion.Model = "claude-3-5-haiku-20241022"
	}
	if c.Completion.TimeoutSeconds <= 0 {
		c.Completion.TimeoutSeconds = 30
	}
	if c.Routing.TopK <= 0 {
		c.Routing.TopK = 5
	}
	if c.Routing.Workers <= 0 {
		c.Routing.Workers = 4
	}
	if c.Routing.QueueSize <= 0 {
		c.Routing.QueueSize = 128
	}
	if c.Routing.CorpusTimeoutSeconds <= 0 {
		c.Routing.CorpusTimeoutSeconds = 60
	}
	if c.Prototypes.Dir == "" {
		c.Prototypes.Dir = "data/prototypes"
	}
}

func envOverride(target *string, key string) {
	if v := os.Getenv(key); v != "" {
		*target = v
	}
}

func envOverrideInt64(target *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*target = n
		}
	}
}
