package cmd

import (
	"errors"
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/spigell/career-compass/internal/backend"
	"github.com/spigell/career-compass/internal/bridge"
	"github.com/spigell/career-compass/internal/logger"
	"github.com/spigell/career-compass/internal/scraper"
	"github.com/spigell/career-compass/internal/session"
	"github.com/spigell/career-compass/internal/tabs"
	"go.uber.org/zap"
)

const (
	app = "career-compass"
)

type Config struct {
	Session     SessionConfig     `mapstructure:"session"`
	LoginURL    string            `mapstructure:"login-url"`
	Identity    IdentityConfig    `mapstructure:"identity"`
	Resume      EndpointConfig    `mapstructure:"resume"`
	Match       EndpointConfig    `mapstructure:"match"`
	Scraper     scraper.Selectors `mapstructure:"scraper"`
	Browser     BrowserConfig     `mapstructure:"browser"`
	PageURL     string            `mapstructure:"page-url"`
	ExcludeFile string            `mapstructure:"exclude-file"`
	Listen      string            `mapstructure:"listen"`
	UserAgent   string            `mapstructure:"user-agent"`
}

type SessionConfig struct {
	CookieFile string `mapstructure:"cookie-file"`
	Origin     string `mapstructure:"origin"`
	Name       string `mapstructure:"name"`
	// Browser reads the cookie from the controlled browser instead of a file.
	Browser bool `mapstructure:"browser"`
}

type IdentityConfig struct {
	URL        string `mapstructure:"url"`
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
}

type EndpointConfig struct {
	URL string `mapstructure:"url"`
}

type BrowserConfig struct {
	Enabled             bool `mapstructure:"enabled"`
	tabs.BrowserOptions `mapstructure:",squash"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "career-compass scrapes job listings and matches them against your stored resume",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	bindings := map[string]string{
		"session.cookie-file":   "CC_COOKIE_FILE",
		"identity.api-key-file": "CC_IDENTITY_API_KEY_FILE",
	}
	for key, env := range bindings {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	viper.SetDefault("session.origin", session.DefaultOrigin)
	viper.SetDefault("session.name", session.DefaultName)
	viper.SetDefault("login-url", session.DefaultOrigin)
	viper.SetDefault("identity.url", backend.DefaultIdentityURL)
	viper.SetDefault("resume.url", backend.DefaultResumeURL)
	viper.SetDefault("match.url", backend.DefaultMatchURL)
	viper.SetDefault("browser.headless", true)
	viper.SetDefault("listen", bridge.DefaultListen)

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is career-compass.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().String("log-output", "stderr", "log sink: stderr, stdout or a file path")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("log-output", rootCmd.PersistentFlags().Lookup("log-output"))
}

func newLogger(command string) (*zap.Logger, error) {
	return logger.New(logger.Options{
		JSON:      viper.GetBool("json"),
		Debug:     viper.GetBool("debug"),
		Command:   command,
		Version:   version,
		Output:    viper.GetString("log-output"),
	})
}

func initConfig() {
	// A missing .env is fine: the variables may come from the environment.
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// Defaults are enough to start, but an explicit config file must parse.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return
		}
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}
