package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type EndpointConfig struct {
	Endpoint   string `yaml:"endpoint"`
	APIKey     string `yaml:"api_key"`
	Deployment string `yaml:"deployment"`
	APIVersion string `yaml:"api_version"`
}

type RetryConfig struct {
	MaxAttempts int `yaml:"max_attempts"`
	DelayMs     int `yaml:"delay_ms"`
	TimeoutS    int `yaml:"timeout_s"`
}

type Config struct {
	ServerAddr       string         `yaml:"server_addr"`
	MCPAddr          string         `yaml:"mcp_addr"`
	LogFile          string         `yaml:"log"`
	AuthToken        string         `yaml:"auth_token"`
	UploadDir        string         `yaml:"upload_dir"`
	DocRoot          string         `yaml:"doc_root"`
	WriteDebounceMs  int            `yaml:"write_debounce_ms"`
	ChromaAddr       string         `yaml:"chroma_addr"`
	ChunkWords       int            `yaml:"chunk_words"`
	TopK             int            `yaml:"top_k"`
	DownloadTimeoutS int            `yaml:"download_timeout_s"`
	CollectionTTLMin int            `yaml:"collection_ttl_min"`
	Embedding        EndpointConfig `yaml:"embedding"`
	Chat             EndpointConfig `yaml:"chat"`
	Retry            RetryConfig    `yaml:"retry"`
}

func readConfig(cfgPath string) (*Config, error) {
	cfgFile, err := os.Open(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("unable to open config file: %w", err)
	}
	defer cfgFile.Close()

	cfg := &Config{}
	dec := yaml.NewDecoder(cfgFile)
	err = dec.Decode(cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to parse config file: %w", err)
	}

	cfg.expandEnv()
	cfg.applyDefaults()

	return cfg, nil
}

// expandEnv substitutes ${VAR} references in credential fields so secrets
// can live in the environment (or a .env file) instead of the config file.
func (c *Config) expandEnv() {
	for _, s := range []*string{
		&c.AuthToken,
		&c.Embedding.Endpoint, &c.Embedding.APIKey, &c.Embedding.Deployment,
		&c.Chat.Endpoint, &c.Chat.APIKey, &c.Chat.Deployment,
	} {
		*s = os.ExpandEnv(*s)
	}
}

func (c *Config) applyDefaults() {
	if c.ServerAddr == "" {
		c.ServerAddr = ":8000"
	}
	if c.LogFile == "" {
		c.LogFile = "docquery.log"
	}
	if c.UploadDir == "" {
		c.UploadDir = "data/uploads"
	}
	if c.ChunkWords <= 0 {
		c.ChunkWords = 500
	}
	if c.TopK <= 0 {
		c.TopK = 5
	}
	if c.DownloadTimeoutS <= 0 {
		c.DownloadTimeoutS = 30
	}
	if c.WriteDebounceMs <= 0 {
		c.WriteDebounceMs = 500
	}
	if c.Embedding.APIVersion == "" {
		c.Embedding.APIVersion = "2024-02-15-preview"
	}
	if c.Chat.APIVersion == "" {
		c.Chat.APIVersion = "2024-02-15-preview"
	}
}

// Missing lists required settings that are absent. The health endpoint
// reports these without touching the remote services.
func (c *Config) Missing() []string {
	required := []struct {
		name  string
		value string
	}{
		{"auth_token", c.AuthToken},
		{"chroma_addr", c.ChromaAddr},
		{"embedding.endpoint", c.Embedding.Endpoint},
		{"embedding.api_key", c.Embedding.APIKey},
		{"chat.endpoint", c.Chat.Endpoint},
		{"chat.api_key", c.Chat.APIKey},
	}

	var missing []string
	for _, r := range required {
		if r.value == "" {
			missing = append(missing, r.name)
		}
	}

	return missing
}
