package config

import (
	"errors"
	"log"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Port   string `yaml:"port" env:"PORT" env-default:"8080"`
	DBPath string `yaml:"db_path" env:"DB_PATH" env-default:"data/blesk.db"`

	// LogSQL enables statement-level database logging.
	LogSQL bool `yaml:"log_sql" env:"LOG_SQL" env-default:"false"`

	// SecretKey signs API session tokens.
	SecretKey string `yaml:"secret_key" env:"SECRET_KEY" env-default:"change_me_in_production"`

	// ManagerCodeHash is the bcrypt hash of the shared manager access
	// code. An empty hash disables manager promotion entirely.
	ManagerCodeHash string `yaml:"manager_code_hash" env:"MANAGER_CODE_HASH"`

	TelegramBotToken string `yaml:"telegram_bot_token" env:"TELEGRAM_BOT_TOKEN"`

	// MediaBackend selects where photo blobs live: "disk" or "s3".
	MediaBackend string `yaml:"media_backend" env:"MEDIA_BACKEND" env-default:"disk"`
	MediaDir     string `yaml:"media_dir" env:"MEDIA_DIR" env-default:"data/photos"`
	S3Bucket     string `yaml:"s3_bucket" env:"S3_BUCKET"`
	S3Region     string `yaml:"s3_region" env:"S3_REGION" env-default:"eu-central-1"`

	// InactivityDays drives the idle-user sweep; 0 disables it.
	InactivityDays int `yaml:"inactivity_days" env:"INACTIVITY_DAYS" env-default:"0"`
}

func MustLoad(configPath string) Config {
	var cfg Config

	if configPath == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			log.Fatalf("cannot read env: %s", err)
		}
		return cfg
	}

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		var pathErr *os.PathError
		if errors.As(err, &pathErr) {
			if err := cleanenv.ReadEnv(&cfg); err != nil {
				log.Fatalf("cannot read env: %s", err)
			}
			return cfg
		}
		log.Fatalf("cannot read config %q: %s", configPath, err)
	}

	return cfg
}
