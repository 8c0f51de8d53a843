package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App        App                  `mapstructure:"app"`
	Gemini     Gemini               `mapstructure:"gemini"`
	Scraper    Scraper              `mapstructure:"scraper"`
	Analysis   Analysis             `mapstructure:"analysis"`
	Storage    Storage              `mapstructure:"storage"`
	FocusAreas map[string]FocusArea `mapstructure:"focus_areas"`
}

// App holds general application configuration
type App struct {
	Debug        bool   `mapstructure:"debug"`
	LogLevel     string `mapstructure:"log_level"`
	DefaultFocus string `mapstructure:"default_focus"`
}

// Gemini holds Google Gemini configuration
type Gemini struct {
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	Timeout     string  `mapstructure:"timeout"`
	MaxTokens   int32   `mapstructure:"max_tokens"`
	Temperature float32 `mapstructure:"temperature"`
}

// Scraper holds Reddit scraper configuration
type Scraper struct {
	UserAgent       string `mapstructure:"user_agent"`
	PostsPerSub     int    `mapstructure:"posts_per_sub"`
	CommentsPerPost int    `mapstructure:"comments_per_post"`
	MinUpvotes      int    `mapstructure:"min_upvotes"`
	TimeFilter      string `mapstructure:"time_filter"`
	RequestInterval string `mapstructure:"request_interval"`
	Timeout         string `mapstructure:"timeout"`
}

// Analysis holds analysis pipeline configuration
type Analysis struct {
	BatchSize int `mapstructure:"batch_size"`
}

// Storage holds data directory configuration
type Storage struct {
	DataDir    string `mapstructure:"data_dir"`
	ReportsDir string `mapstructure:"reports_dir"`
	ScrapesDir string `mapstructure:"scrapes_dir"`
}

// FocusArea describes one monitored topic: which subreddits to scrape and
// which analysis mode to run over them.
type FocusArea struct {
	Name        string   `mapstructure:"name"`
	Description string   `mapstructure:"description"`
	Keywords    []string `mapstructure:"keywords"`
	Subreddits  []string `mapstructure:"subreddits"`
	Mode        string   `mapstructure:"mode"`
}

var globalConfig *Config

// Load loads the configuration from various sources
func Load(configFile string) (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	// Load .env file if it exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			fmt.Printf("Warning: Error loading .env file: %v\n", err)
		}
	}

	// Configure viper
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
		viper.SetConfigName(".reddar")
		viper.SetConfigType("yaml")
	}

	setDefaults()
	bindEnvironmentVariables()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := postProcessConfig(config); err != nil {
		return nil, fmt.Errorf("error post-processing config: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, err
	}

	globalConfig = config
	return config, nil
}

// Get returns the global configuration, loading it if necessary
func Get() *Config {
	if globalConfig == nil {
		config, err := Load("")
		if err != nil {
			panic(fmt.Sprintf("Failed to load configuration: %v", err))
		}
		return config
	}
	return globalConfig
}

// setDefaults sets default configuration values
func setDefaults() {
	// App defaults
	viper.SetDefault("app.debug", false)
	viper.SetDefault("app.log_level", "info")

	// Gemini defaults
	viper.SetDefault("gemini.model", "gemini-2.5-flash")
	viper.SetDefault("gemini.timeout", "300s")
	viper.SetDefault("gemini.max_tokens", 8192)
	viper.SetDefault("gemini.temperature", 0.7)

	// Scraper defaults
	viper.SetDefault("scraper.user_agent", "reddar/1.0 (research agent)")
	viper.SetDefault("scraper.posts_per_sub", 25)
	viper.SetDefault("scraper.comments_per_post", 5)
	viper.SetDefault("scraper.min_upvotes", 5)
	viper.SetDefault("scraper.time_filter", "week")
	viper.SetDefault("scraper.request_interval", "2s")
	viper.SetDefault("scraper.timeout", "30s")

	// Analysis defaults
	viper.SetDefault("analysis.batch_size", 50)

	// Storage defaults
	viper.SetDefault("storage.data_dir", "data")
	viper.SetDefault("storage.reports_dir", "data/reports")
	viper.SetDefault("storage.scrapes_dir", "data/scrapes")
}

// bindEnvironmentVariables sets up flexible environment variable binding
func bindEnvironmentVariables() {
	// Gemini API key - support multiple formats
	bindEnvKeys("gemini.api_key", []string{
		"GEMINI_API_KEY",
		"GOOGLE_GEMINI_API_KEY",
		"GOOGLE_AI_API_KEY",
	})

	bindEnvKeys("app.debug", []string{
		"DEBUG",
		"REDDAR_DEBUG",
	})

	bindEnvKeys("scraper.user_agent", []string{
		"REDDAR_USER_AGENT",
	})
}

// bindEnvKeys binds the first found environment variable to a viper key
func bindEnvKeys(viperKey string, envKeys []string) {
	for _, envKey := range envKeys {
		if value := os.Getenv(envKey); value != "" {
			viper.Set(viperKey, value)
			return
		}
	}
}

// postProcessConfig applies post-processing to configuration values
func postProcessConfig(config *Config) error {
	if config.Storage.DataDir != "" {
		config.Storage.DataDir = expandPath(config.Storage.DataDir)
	}
	if config.Storage.ReportsDir != "" {
		config.Storage.ReportsDir = expandPath(config.Storage.ReportsDir)
	}
	if config.Storage.ScrapesDir != "" {
		config.Storage.ScrapesDir = expandPath(config.Storage.ScrapesDir)
	}

	durations := map[string]string{
		"gemini.timeout":           config.Gemini.Timeout,
		"scraper.request_interval": config.Scraper.RequestInterval,
		"scraper.timeout":          config.Scraper.Timeout,
	}

	for key, duration := range durations {
		if duration != "" {
			if _, err := time.ParseDuration(duration); err != nil {
				return fmt.Errorf("invalid duration for %s: %s", key, duration)
			}
		}
	}

	return nil
}

// expandPath expands ~ and environment variables in paths
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return os.ExpandEnv(path)
}

// validateConfig ensures required configuration is present
func validateConfig(config *Config) error {
	var errors []string

	for id, area := range config.FocusAreas {
		switch area.Mode {
		case "", "opportunities", "news":
		default:
			errors = append(errors, fmt.Sprintf("focus area %q has unknown mode %q. Supported: opportunities, news", id, area.Mode))
		}
		if len(area.Subreddits) == 0 {
			errors = append(errors, fmt.Sprintf("focus area %q has no subreddits configured", id))
		}
	}

	if config.App.DefaultFocus != "" && len(config.FocusAreas) > 0 {
		if _, ok := config.FocusAreas[config.App.DefaultFocus]; !ok {
			errors = append(errors, fmt.Sprintf("default focus area %q is not defined under focus_areas", config.App.DefaultFocus))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration errors:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// Area returns the focus area with the given id. Unknown ids are an error so
// a mistyped id fails before any network call.
func (c *Config) Area(id string) (FocusArea, error) {
	area, ok := c.FocusAreas[id]
	if !ok {
		ids := make([]string, 0, len(c.FocusAreas))
		for k := range c.FocusAreas {
			ids = append(ids, k)
		}
		return FocusArea{}, fmt.Errorf("unknown focus area %q (configured: %s)", id, strings.Join(ids, ", "))
	}
	if area.Mode == "" {
		area.Mode = "opportunities"
	}
	if area.Name == "" {
		area.Name = id
	}
	return area, nil
}

// Convenience getters for commonly used configuration values
func GetApp() App           { return Get().App }
func GetGemini() Gemini     { return Get().Gemini }
func GetScraper() Scraper   { return Get().Scraper }
func GetAnalysis() Analysis { return Get().Analysis }
func GetStorage() Storage   { return Get().Storage }

// Specific convenience getters for frequently accessed values
func GetGeminiAPIKey() string { return Get().Gemini.APIKey }
func GetGeminiModel() string  { return Get().Gemini.Model }
func GetDataDir() string      { return Get().Storage.DataDir }
func GetReportsDir() string   { return Get().Storage.ReportsDir }
func IsDebugMode() bool       { return Get().App.Debug }

// GeminiTimeout returns the configured Gemini request timeout.
func GeminiTimeout() time.Duration {
	if d, err := time.ParseDuration(Get().Gemini.Timeout); err == nil && d > 0 {
		return d
	}
	return 300 * time.Second
}

// Reset clears the global configuration (useful for testing)
func Reset() {
	globalConfig = nil
	viper.Reset()
}
