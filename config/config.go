package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	AppEnv       string `yaml:"app_env"`
	HttpPort     string `yaml:"port"`
	AllowOrigins string `yaml:"allow_origins"`
	AdminToken   string `yaml:"admin_token"`

	// Qdrant
	QdrantURL        string `yaml:"qdrant_url"`
	QdrantAPIKey     string `yaml:"qdrant_api_key"`
	CollectionName   string `yaml:"collection_name"`
	DenseVectorName  string `yaml:"dense_vector_name"`
	SparseVectorName string `yaml:"sparse_vector_name"`
	DenseDimension   int    `yaml:"dense_dimension"`
	RetrievalK       int    `yaml:"retrieval_k"`

	// chat completion (Groq, OpenAI compatible)
	GroqAPIKey         string  `yaml:"groq_api_key"`
	LLMBaseURL         string  `yaml:"llm_base_url"`
	LLMModel           string  `yaml:"llm_model"`
	LLMTemperature     float64 `yaml:"llm_temperature"`
	LLMMaxTokens       int     `yaml:"llm_max_tokens"`
	HistoryTokenBudget int     `yaml:"history_token_budget"`

	// embeddings
	EmbeddingBaseURL   string `yaml:"embedding_base_url"`
	EmbeddingAPIKey    string `yaml:"embedding_api_key"`
	EmbeddingModel     string `yaml:"embedding_model"`
	EmbeddingBatchSize int    `yaml:"embedding_batch_size"`

	// document templates
	TemplateDir    string `yaml:"template_dir"`
	DefaultFormID  string `yaml:"default_form_id"`
	StrictFormType bool   `yaml:"strict_form_type"`
	Semester       string `yaml:"semester"`
	WatchTemplates bool   `yaml:"watch_templates"`

	// S3/MinIO
	BucketEndpoint  string `yaml:"bucket_endpoint"`
	BucketAccessID  string `yaml:"bucket_access_id"`
	BucketAccessKey string `yaml:"bucket_access_key"`
	BucketName      string `yaml:"bucket_name"`
	BucketRegion    string `yaml:"bucket_region"`
	UseSSL          bool   `yaml:"bucket_use_ssl"` // MinIO: false, S3: true
	StorageType     string `yaml:"storage_type"`   // "minio", "s3" or empty to disable

	// Redis
	RedisURL      string `yaml:"redis_url"`
	RedisPassword string `yaml:"redis_password"`

	// Postgres
	Host     string `yaml:"pg_host"`
	User     string `yaml:"pg_user"`
	Password string `yaml:"pg_password"`
	DBName   string `yaml:"pg_db"`
	Port     string `yaml:"pg_port"`

	// others
	UpstreamTimeout   time.Duration `yaml:"upstream_timeout"`
	RetrievalCacheTTL time.Duration `yaml:"retrieval_cache_ttl"`
	DownloadURLTTL    time.Duration `yaml:"download_url_ttl"`
	IngestURLs        []string      `yaml:"ingest_urls"`
}

// LoadConfig builds the configuration from defaults, an optional YAML file
// (CONFIG_FILE, else ./config.yaml when present) and finally the environment.
func LoadConfig() (*Config, error) {
	cfg := Default()
	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Default() *Config {
	return &Config{
		HttpPort:           "8000",
		AllowOrigins:       "*",
		CollectionName:     "demo_collection_railway_v2",
		DenseVectorName:    "dense_vector",
		SparseVectorName:   "sparse_vector",
		DenseDimension:     384,
		RetrievalK:         5,
		LLMBaseURL:         "https://api.groq.com/openai/v1",
		LLMModel:           "llama-3.1-8b-instant",
		LLMTemperature:     0.2,
		LLMMaxTokens:       1024,
		HistoryTokenBudget: 2048,
		EmbeddingBaseURL:   "http://localhost:8080/v1",
		EmbeddingModel:     "BAAI/bge-small-en-v1.5",
		EmbeddingBatchSize: 32,
		TemplateDir:        "templates",
		DefaultFormID:      "RO.01",
		Semester:           "2/2567",
		WatchTemplates:     true,
		UpstreamTimeout:    60 * time.Second,
		RetrievalCacheTTL:  10 * time.Minute,
		DownloadURLTTL:     15 * time.Minute,
	}
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("config file %s not found", path)
		}
		return err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.AppEnv, "APP_ENV")
	setString(&c.HttpPort, "PORT")
	setString(&c.AllowOrigins, "ALLOWORIGINS")
	setString(&c.AdminToken, "ADMIN_TOKEN")

	setString(&c.QdrantURL, "QDRANT_URL")
	setString(&c.QdrantAPIKey, "QDRANT_API_KEY")
	setString(&c.CollectionName, "COLLECTION_NAME")
	setString(&c.DenseVectorName, "DENSE_VECTOR_NAME")
	setString(&c.SparseVectorName, "SPARSE_VECTOR_NAME")

	setString(&c.GroqAPIKey, "GROQ_API_KEY")
	setString(&c.LLMBaseURL, "LLM_BASE_URL")
	setString(&c.LLMModel, "LLM_MODEL")

	setString(&c.EmbeddingBaseURL, "EMBEDDING_BASE_URL")
	setString(&c.EmbeddingAPIKey, "EMBEDDING_API_KEY")
	setString(&c.EmbeddingModel, "EMBEDDING_MODEL")

	setString(&c.TemplateDir, "TEMPLATE_DIR")
	setString(&c.DefaultFormID, "DEFAULT_FORM_ID")
	setString(&c.Semester, "SEMESTER")

	setString(&c.BucketEndpoint, "BUCKET_ENDPOINT")
	setString(&c.BucketAccessID, "BUCKET_ACCESS_ID")
	setString(&c.BucketAccessKey, "BUCKET_ACCESS_KEY")
	setString(&c.BucketName, "BUCKET_NAME")
	setString(&c.BucketRegion, "BUCKET_REGION")
	setString(&c.StorageType, "STORAGE_TYPE")

	setString(&c.RedisURL, "REDIS_URL")
	setString(&c.RedisPassword, "REDIS_PASSWORD")

	setString(&c.Host, "PG_HOST")
	setString(&c.User, "PG_USER")
	setString(&c.Password, "PG_PASSWORD")
	setString(&c.DBName, "PG_DB")
	setString(&c.Port, "PG_PORT")

	var errs []error
	errs = append(errs,
		setInt(&c.DenseDimension, "DENSE_DIMENSION"),
		setInt(&c.RetrievalK, "RETRIEVAL_K"),
		setFloat(&c.LLMTemperature, "LLM_TEMPERATURE"),
		setInt(&c.LLMMaxTokens, "LLM_MAX_TOKENS"),
		setInt(&c.HistoryTokenBudget, "HISTORY_TOKEN_BUDGET"),
		setInt(&c.EmbeddingBatchSize, "EMBEDDING_BATCH_SIZE"),
		setBool(&c.StrictFormType, "STRICT_FORM_TYPE"),
		setBool(&c.WatchTemplates, "WATCH_TEMPLATES"),
		setBool(&c.UseSSL, "BUCKET_USE_SSL"),
		setDuration(&c.UpstreamTimeout, "UPSTREAM_TIMEOUT"),
		setDuration(&c.RetrievalCacheTTL, "RETRIEVAL_CACHE_TTL"),
		setDuration(&c.DownloadURLTTL, "DOWNLOAD_URL_TTL"),
	)
	if urls := os.Getenv("INGEST_URLS"); urls != "" {
		c.IngestURLs = nil
		for _, u := range strings.Split(urls, ",") {
			if u = strings.TrimSpace(u); u != "" {
				c.IngestURLs = append(c.IngestURLs, u)
			}
		}
	}
	return errors.Join(errs...)
}

// RedisEnabled reports whether a Redis URL was configured.
func (c *Config) RedisEnabled() bool { return c.RedisURL != "" }

// DatabaseEnabled reports whether Postgres connection settings were configured.
func (c *Config) DatabaseEnabled() bool { return c.Host != "" && c.DBName != "" }

// StorageEnabled reports whether a bucket backend was configured.
func (c *Config) StorageEnabled() bool { return c.StorageType != "" && c.BucketName != "" }

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func setFloat(dst *float64, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = f
	return nil
}

func setBool(dst *bool, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = b
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}
