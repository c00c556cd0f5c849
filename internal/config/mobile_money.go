package config

import (
	"time"
)

type MobileMoneyConfig struct {
	CallbackBaseURL string             `yaml:"callback_base_url"`
	RequestTimeout  time.Duration      `yaml:"request_timeout"`
	Wave            *WaveConfig        `yaml:"wave"`
	OrangeMoney     *OrangeMoneyConfig `yaml:"orange_money"`
	MTNMoney        *MTNMoneyConfig    `yaml:"mtn_money"`
	MoovMoney       *MoovMoneyConfig   `yaml:"moov_money"`
}

type WaveConfig struct {
	Enabled bool   `yaml:"enabled"`
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
}

type OrangeMoneyConfig struct {
	Enabled      bool   `yaml:"enabled"`
	BaseURL      string `yaml:"base_url"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	MerchantKey  string `yaml:"merchant_key"`
}

type MTNMoneyConfig struct {
	Enabled         bool   `yaml:"enabled"`
	BaseURL         string `yaml:"base_url"`
	SubscriptionKey string `yaml:"subscription_key"`
	APIUser         string `yaml:"api_user"`
	APIKey          string `yaml:"api_key"`
	Environment     string `yaml:"environment"`
}

type MoovMoneyConfig struct {
	Enabled  bool   `yaml:"enabled"`
	BaseURL  string `yaml:"base_url"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

func loadMobileMoneyConfig() *MobileMoneyConfig {
	return &MobileMoneyConfig{
		CallbackBaseURL: getEnv("MM_CALLBACK_BASE_URL", "http://localhost:8080"),
		RequestTimeout:  getEnvAsDuration("MM_REQUEST_TIMEOUT", 30*time.Second),
		Wave: &WaveConfig{
			Enabled: getEnvAsBool("WAVE_ENABLED", true),
			BaseURL: getEnv("WAVE_BASE_URL", "https://api.wave.com"),
			APIKey:  getEnv("WAVE_API_KEY", ""),
		},
		OrangeMoney: &OrangeMoneyConfig{
			Enabled:      getEnvAsBool("ORANGE_MONEY_ENABLED", true),
			BaseURL:      getEnv("ORANGE_MONEY_BASE_URL", "https://api.orange.com"),
			ClientID:     getEnv("ORANGE_MONEY_CLIENT_ID", ""),
			ClientSecret: getEnv("ORANGE_MONEY_CLIENT_SECRET", ""),
			MerchantKey:  getEnv("ORANGE_MONEY_MERCHANT_KEY", ""),
		},
		MTNMoney: &MTNMoneyConfig{
			Enabled:         getEnvAsBool("MTN_MONEY_ENABLED", true),
			BaseURL:         getEnv("MTN_MONEY_BASE_URL", "https://sandbox.momodeveloper.mtn.com"),
			SubscriptionKey: getEnv("MTN_MONEY_SUBSCRIPTION_KEY", ""),
			APIUser:         getEnv("MTN_MONEY_API_USER", ""),
			APIKey:          getEnv("MTN_MONEY_API_KEY", ""),
			Environment:     getEnv("MTN_MONEY_ENVIRONMENT", "sandbox"),
		},
		MoovMoney: &MoovMoneyConfig{
			Enabled:  getEnvAsBool("MOOV_MONEY_ENABLED", true),
			BaseURL:  getEnv("MOOV_MONEY_BASE_URL", "https://api.moov-africa.com"),
			Username: getEnv("MOOV_MONEY_USERNAME", ""),
			Password: getEnv("MOOV_MONEY_PASSWORD", ""),
		},
	}
}
