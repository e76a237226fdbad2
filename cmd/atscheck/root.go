package main

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ats-checker/internal/shared/config"
)

const app = "atscheck"

// cliConfig mirrors the server environment keys. Values come from flags,
// then the environment, then atscheck.yaml.
type cliConfig struct {
	LLM struct {
		Provider string `mapstructure:"provider"`
		Model    string `mapstructure:"model"`
	} `mapstructure:"llm"`
	GeminiAPIKey    string        `mapstructure:"gemini-api-key"`
	OpenAIAPIKey    string        `mapstructure:"openai-api-key"`
	AnalysisTimeout time.Duration `mapstructure:"analysis-timeout"`
	PDF             struct {
		Timeout             time.Duration `mapstructure:"timeout"`
		PartialFailureShare float64       `mapstructure:"partial-failure-share"`
		Workers             int           `mapstructure:"workers"`
	} `mapstructure:"pdf"`
}

var (
	cfgFile string

	rootCmd = &cobra.Command{
		Use:           app,
		Short:         "atscheck scores a CV for ATS compatibility against a job title",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute executes the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		rootCmd.PrintErrln("Error:", err)
	}
	return err
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is atscheck.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	base := config.Load()
	setDefaults(viper.GetViper(), base)

	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()
	if err := viper.BindEnv("gemini-api-key", "GEMINI_API_KEY", "AI_API_KEY"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY environment variable: %v", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatalf("reading config: %v", err)
		}
	}
}

func setDefaults(v *viper.Viper, base config.Config) {
	v.SetDefault("llm.provider", base.LLMProvider)
	v.SetDefault("llm.model", base.LLMModel)
	v.SetDefault("gemini-api-key", base.GeminiAPIKey)
	v.SetDefault("openai-api-key", base.OpenAIAPIKey)
	v.SetDefault("analysis-timeout", base.AnalysisTimeout)
	v.SetDefault("pdf.timeout", base.PDFTimeout)
	v.SetDefault("pdf.partial-failure-share", base.PDFPartialFailureShare)
	v.SetDefault("pdf.workers", base.PDFWorkers)
}

// loadConfig resolves the effective configuration from v.
func loadConfig(v *viper.Viper) (config.Config, error) {
	var c cliConfig
	if err := v.Unmarshal(&c); err != nil {
		return config.Config{}, err
	}

	cfg := config.Config{
		Env:                    "local",
		LLMProvider:            config.NormalizeProvider(c.LLM.Provider),
		LLMModel:               strings.TrimSpace(c.LLM.Model),
		GeminiAPIKey:           strings.TrimSpace(c.GeminiAPIKey),
		OpenAIAPIKey:           strings.TrimSpace(c.OpenAIAPIKey),
		AnalysisTimeout:        c.AnalysisTimeout,
		PDFTimeout:             c.PDF.Timeout,
		PDFPartialFailureShare: c.PDF.PartialFailureShare,
		PDFWorkers:             c.PDF.Workers,
		LogJSON:                v.GetBool("json"),
		LogDebug:               v.GetBool("debug"),
	}
	if cfg.AnalysisTimeout <= 0 {
		cfg.AnalysisTimeout = config.DefaultAnalysisTimeout
	}
	if cfg.PDFTimeout <= 0 {
		cfg.PDFTimeout = config.DefaultPDFTimeout
	}
	if cfg.PDFPartialFailureShare < 0 || cfg.PDFPartialFailureShare >= 1 {
		cfg.PDFPartialFailureShare = config.DefaultPDFPartialFailureShare
	}
	if cfg.PDFWorkers <= 0 {
		cfg.PDFWorkers = config.DefaultPDFWorkers
	}
	return cfg, nil
}
