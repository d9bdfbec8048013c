package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/simplebim/license-server/internal/api/http"
	"github.com/simplebim/license-server/internal/auth"
	"github.com/simplebim/license-server/internal/chat"
	"github.com/simplebim/license-server/internal/db"
	"github.com/simplebim/license-server/internal/email"
)

type Config struct {
	Log   LogConfig
	Http  http.Config
	Db    db.Config
	Auth  auth.Config
	Email email.Config
	Chat  chat.CacheConfig
}

var config Config

func InitConfig() {
	_ = godotenv.Load()

	viper.SetConfigName("application")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./cmd/license-server")
	viper.SetConfigType("yaml")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	_ = viper.BindEnv("db.url", "DATABASE_URL")
	_ = viper.BindEnv("auth.jwt.secret", "JWT_SECRET")
	_ = viper.BindEnv("email.api_key", "BREVO_API_KEY")

	if err := viper.ReadInConfig(); err != nil {
		panic(err)
	}

	if err := viper.Unmarshal(&config); err != nil {
		panic(err)
	}

	// The service-level OTP expiry and the email copy must agree.
	if config.Email.OTPExpireMinutes == 0 {
		config.Email.OTPExpireMinutes = config.Auth.OTPExpireMinutes
	}

	initLogger(config.Log.Level)

	if strings.ToUpper(config.Log.Level) == LOG_LEVEL_DEBUG {
		configJSON, err := json.MarshalIndent(config, "", "  ")
		if err == nil {
			fmt.Println("Config loaded:")
			fmt.Println(string(configJSON))
		}
	}
}
