package config

import "github.com/spf13/viper"

// Config - структура для хранения конфигураций приложения
type Config struct {
	ServerAddress  string `mapstructure:"SERVER_ADDRESS"`
	PostgresConn   string `mapstructure:"POSTGRES_CONN"`
	MigrationURL   string `mapstructure:"MIGRATION_URL"`
	TelegramToken  string `mapstructure:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID string `mapstructure:"TELEGRAM_CHAT_ID"`
}

// LoadConfig загружает конфигурацию из файла
func LoadConfig(path string) (cfg Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("app")
	viper.SetConfigType("env")

	err = viper.ReadInConfig()
	if err != nil {
		return
	}
	err = viper.Unmarshal(&cfg)
	return
}
