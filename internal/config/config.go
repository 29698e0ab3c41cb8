package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	RPCURL     string
	Router     string
	PrivateKey string
	PoolsFile  string

	LLMBaseURL string
	LLMAPIKey  string
	LLMModel   string
	LLMTimeout time.Duration

	SlippageBps   int64
	DeadlineSecs  int64
	ApprovalWait  string
	ApprovalDelay time.Duration
	ReceiptPoll   time.Duration

	PGDSN    string
	LogLevel string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SWAPSCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("llm-model", "gpt-4o-mini")
	v.SetDefault("llm-timeout", 30*time.Second)
	v.SetDefault("slippage-bps", int64(500))
	v.SetDefault("deadline-secs", int64(1200))
	v.SetDefault("approval-wait", "receipt")
	v.SetDefault("approval-delay", 5*time.Second)
	v.SetDefault("receipt-poll", 2*time.Second)
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		RPCURL:        v.GetString("rpc"),
		Router:        v.GetString("router"),
		PrivateKey:    v.GetString("private-key"),
		PoolsFile:     v.GetString("pools"),
		LLMBaseURL:    v.GetString("llm-base-url"),
		LLMAPIKey:     v.GetString("llm-api-key"),
		LLMModel:      v.GetString("llm-model"),
		LLMTimeout:    v.GetDuration("llm-timeout"),
		SlippageBps:   v.GetInt64("slippage-bps"),
		DeadlineSecs:  v.GetInt64("deadline-secs"),
		ApprovalWait:  v.GetString("approval-wait"),
		ApprovalDelay: v.GetDuration("approval-delay"),
		ReceiptPoll:   v.GetDuration("receipt-poll"),
		PGDSN:         v.GetString("pg-dsn"),
		LogLevel:      v.GetString("log-level"),
	}

	return cfg, nil
}
