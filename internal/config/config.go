// internal/config/config.go
//
// 讀取執行設定。所有欄位皆有預設值，未設定任何環境變數時行為與固定路徑版本相同。
// 來源優先序：環境變數（前綴 BANK_）> config.yaml（可選）> 預設值。
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	EnvDev  = "dev"
	EnvProd = "prod"
)

type Config struct {
	DataFile    string `mapstructure:"DATA_FILE" validate:"required"`
	LogLevel    string `mapstructure:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	LogOutput   string `mapstructure:"LOG_OUTPUT" validate:"required"`
	AppEnv      string `mapstructure:"APP_ENV" validate:"oneof=dev prod"`
	PinHashCost int    `mapstructure:"PIN_HASH_COST" validate:"min=4,max=31"`
}

var keys = []string{"DATA_FILE", "LOG_LEVEL", "LOG_OUTPUT", "APP_ENV", "PIN_HASH_COST"}

// Load 讀取設定；configDir 為 config.yaml 所在目錄，空字串代表工作目錄。
func Load(configDir string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("bank") // BANK_DATA_FILE ...
	v.AutomaticEnv()

	// Default values
	v.SetDefault("DATA_FILE", "users.json")
	v.SetDefault("LOG_LEVEL", "warn")
	v.SetDefault("LOG_OUTPUT", "stderr")
	v.SetDefault("APP_ENV", EnvProd)
	v.SetDefault("PIN_HASH_COST", 10)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if configDir == "" {
		configDir = "."
	}
	v.AddConfigPath(configDir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	// AutomaticEnv 只對 Get 生效，Unmarshal 前需逐一綁定
	for _, k := range keys {
		if err := v.BindEnv(k); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.AppEnv = strings.ToLower(cfg.AppEnv)

	// Validate after unmarshal
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, formatErrors(err)
	}
	return &cfg, nil
}

// formatErrors 把 validator 錯誤整理為單行訊息，例如 "invalid config: LOG_LEVEL(oneof)"。
func formatErrors(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s(%s)", fieldKey(fe.StructField()), fe.Tag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(parts, ", "))
}

func fieldKey(field string) string {
	switch field {
	case "DataFile":
		return "DATA_FILE"
	case "LogLevel":
		return "LOG_LEVEL"
	case "LogOutput":
		return "LOG_OUTPUT"
	case "AppEnv":
		return "APP_ENV"
	case "PinHashCost":
		return "PIN_HASH_COST"
	}
	return field
}
