package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	VLM         VLMConfig         `mapstructure:"vlm"`
	Batch       BatchConfig       `mapstructure:"batch"`
	Consolidate ConsolidateConfig `mapstructure:"consolidate"`
	Civitai     CivitaiConfig     `mapstructure:"civitai"`
	Lexica      LexicaConfig      `mapstructure:"lexica"`
	Models      ModelsConfig      `mapstructure:"models"`
	PCA         PCAConfig         `mapstructure:"pca"`
}

// VLMConfig configures the captioning service endpoint.
type VLMConfig struct {
	Model     string `mapstructure:"model"`
	APIKey    string `mapstructure:"api_key"`
	BaseURL   string `mapstructure:"base_url"`
	MaxTokens int    `mapstructure:"max_tokens"`
}

// BatchConfig holds the unified retry/checkpoint policy shared by every
// captioning pipeline. The two original pipelines disagreed on rate-limit
// handling and thresholds; one parameterized policy replaces both.
type BatchConfig struct {
	SaveInterval           int `mapstructure:"save_interval"`
	MaxConsecutiveFailures int `mapstructure:"max_consecutive_failures"`
	RetryCount             int `mapstructure:"retry_count"`
	RetryDelaySeconds      int `mapstructure:"retry_delay_seconds"`
	RateLimitPauseSeconds  int `mapstructure:"rate_limit_pause_seconds"`
	RequestPauseSeconds    int `mapstructure:"request_pause_seconds"`
}

// RetryDelay returns the base delay between retry attempts.
func (c BatchConfig) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelaySeconds) * time.Second
}

// RateLimitPause returns the fixed pause applied after a rate-limit response.
func (c BatchConfig) RateLimitPause() time.Duration {
	return time.Duration(c.RateLimitPauseSeconds) * time.Second
}

// RequestPause returns the fixed sleep between consecutive remote calls.
func (c BatchConfig) RequestPause() time.Duration {
	return time.Duration(c.RequestPauseSeconds) * time.Second
}

type ConsolidateConfig struct {
	PromptDir string `mapstructure:"prompt_dir"`
	OutputCSV string `mapstructure:"output_csv"`
}

type CivitaiConfig struct {
	TargetDir string `mapstructure:"target_dir"`
	OutputCSV string `mapstructure:"output_csv"`
}

type LexicaConfig struct {
	DataDir            string `mapstructure:"data_dir"`
	ImageDir           string `mapstructure:"image_dir"`
	OutputCSV          string `mapstructure:"output_csv"`
	DownloadTimeoutSec int    `mapstructure:"download_timeout_seconds"`
}

// DownloadTimeout returns the timeout for a single image fetch.
func (c LexicaConfig) DownloadTimeout() time.Duration {
	return time.Duration(c.DownloadTimeoutSec) * time.Second
}

type ModelsConfig struct {
	BaseFolder   string   `mapstructure:"base_folder"`
	ModelFolders []string `mapstructure:"model_folders"`
	NumSamples   int      `mapstructure:"num_samples"`
	OutputDir    string   `mapstructure:"output_dir"`
}

type PCAConfig struct {
	FaithfulnessCSV string `mapstructure:"faithfulness_csv"`
	RichnessCSV     string `mapstructure:"richness_csv"`
}

func Load(configPath string) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// Enable environment variable override
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set defaults
	v.SetDefault("vlm.model", "gpt-4o-mini")
	v.SetDefault("vlm.base_url", "https://api.openai.com/v1")
	v.SetDefault("vlm.max_tokens", 100)
	v.SetDefault("batch.save_interval", 50)
	v.SetDefault("batch.max_consecutive_failures", 10)
	v.SetDefault("batch.retry_count", 3)
	v.SetDefault("batch.retry_delay_seconds", 2)
	v.SetDefault("batch.rate_limit_pause_seconds", 5)
	v.SetDefault("batch.request_pause_seconds", 2)
	v.SetDefault("consolidate.prompt_dir", "./data/ORIGINAL")
	v.SetDefault("consolidate.output_csv", "./model_outputs/ORIGINAL_prompts.csv")
	v.SetDefault("civitai.target_dir", "./data/civitai")
	v.SetDefault("civitai.output_csv", "./data/civitai/civitai_image_prompt_captioned_cleaned.csv")
	v.SetDefault("lexica.data_dir", "./data/lexica")
	v.SetDefault("lexica.image_dir", "./data/lexica/images")
	v.SetDefault("lexica.output_csv", "./data/lexica/lexica_captioned.csv")
	v.SetDefault("lexica.download_timeout_seconds", 10)
	v.SetDefault("models.base_folder", "./data/captioner")
	v.SetDefault("models.model_folders", []string{"T5", "BART", "QWEN", "DEEPSEEK"})
	v.SetDefault("models.num_samples", 200)
	v.SetDefault("models.output_dir", "./model_outputs")
	v.SetDefault("pca.faithfulness_csv", "./data/faithfulness_scores_all_models.csv")
	v.SetDefault("pca.richness_csv", "./data/richness_scores_all_models.csv")

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Bind environment variables explicitly for sensitive data
	v.BindEnv("vlm.api_key", "OPENAI_API_KEY")
	v.BindEnv("vlm.base_url", "OPENAI_BASE_URL")
	v.BindEnv("vlm.model", "VLM_MODEL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
