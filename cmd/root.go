package cmd

import (
	"log"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "stylist"

	defaultCatalogPath = "data/catalog.json"
)

type Config struct {
	Catalog   *CatalogConfig   `mapstructure:"catalog"`
	AI        *AIConfig        `mapstructure:"ai"`
	Recommend *RecommendConfig `mapstructure:"recommend"`
}

type CatalogConfig struct {
	Path string `mapstructure:"path"`
}

type AIConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Provider string        `mapstructure:"provider"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKeysFile  string  `mapstructure:"api-keys-file"`
	Model        string  `mapstructure:"model"`
	ImageModel   string  `mapstructure:"image-model"`
	MaxRetries   int     `mapstructure:"max-retries"`
	Temperature  float64 `mapstructure:"temperature"`
	MaxLogLength int     `mapstructure:"max-log-length"`
}

type RecommendConfig struct {
	MaxPerCategory int      `mapstructure:"max-per-category"`
	ExcludeTags    []string `mapstructure:"exclude-tags"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "stylist recommends catalog items matching a style analysis and generates virtual try-on images",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("ai.gemini.api-keys-file", "GEMINI_API_KEYS_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEYS_FILE environment variable: %v", err)
	}

	if err := viper.BindEnv("catalog.path", "CATALOG_PATH"); err != nil {
		log.Fatalf("binding CATALOG_PATH environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is stylist.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		// A missing config file is fine when none was requested explicitly;
		// defaults and environment variables still apply.
		if _, notFound := err.(viper.ConfigFileNotFoundError); notFound && cfgFile == "" {
			return
		}
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config, viper.DecodeHook(mapstructure.StringToSliceHookFunc(",")))
	if err != nil {
		return config, err
	}

	if config == nil {
		config = &Config{}
	}

	return config, nil
}

func catalogPath(config *Config) string {
	if config != nil && config.Catalog != nil && config.Catalog.Path != "" {
		return config.Catalog.Path
	}
	return defaultCatalogPath
}
