package cmd

import (
	"errors"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "jobsheet"
)

type Config struct {
	SpreadsheetID   string       `mapstructure:"spreadsheet-id"`
	ResumeDocID     string       `mapstructure:"resume-doc-id"`
	Timezone        string       `mapstructure:"timezone"`
	CredentialsFile string       `mapstructure:"credentials-file"`
	Gmail           *GmailConfig `mapstructure:"gmail"`
	AI              *AIConfig    `mapstructure:"ai"`
}

type GmailConfig struct {
	Query          string `mapstructure:"query"`
	ProcessedLabel string `mapstructure:"processed-label"`
}

type AIConfig struct {
	Enabled           bool            `mapstructure:"enabled"`
	DualModel         bool            `mapstructure:"dual-model"`
	Threshold         int             `mapstructure:"threshold"`
	Concurrency       int             `mapstructure:"concurrency"`
	RequestsPerMinute int             `mapstructure:"requests-per-minute"`
	MaxLogLength      int             `mapstructure:"max-log-length"`
	Gemini            *ProviderConfig `mapstructure:"gemini"`
	AIStudio          *ProviderConfig `mapstructure:"aistudio"`
}

type ProviderConfig struct {
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
	Model      string `mapstructure:"model"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "jobsheet turns LinkedIn job alert emails into a scored tracking spreadsheet",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is jobsheet.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// Local development keeps keys in a .env file; a missing file is fine.
	_ = godotenv.Load()

	viper.SetEnvPrefix(strings.ToUpper(app))
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
		viper.SetConfigType("yaml")
	}

	// The config file is optional, everything can come from the
	// environment. A present but broken file is fatal.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	config := &Config{}
	if err := mapstructure.Decode(viper.AllSettings(), config); err != nil {
		return nil, err
	}

	applyDefaults(config)
	return config, nil
}

func applyDefaults(config *Config) {
	if config.Gmail == nil {
		config.Gmail = &GmailConfig{}
	}
	if config.Gmail.Query == "" {
		config.Gmail.Query = `from:jobalerts-noreply@linkedin.com subject:"your job alert"`
	}
	if config.Gmail.ProcessedLabel == "" {
		config.Gmail.ProcessedLabel = "jobsheet/processed"
	}
}
