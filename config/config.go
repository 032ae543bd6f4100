package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	DB       DBConfig
	Redis    RedisConfig
	RabbitMQ RabbitMQConfig
	S3       S3Config
	Auth     AuthConfig
	Game     GameConfig
}

type ServerConfig struct {
	HTTPPort  string
	GRPCPort  string
	PublicURL string
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type RabbitMQConfig struct {
	Host     string
	Port     string
	User     string
	Password string
}

type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	Prefix    string
}

type AuthConfig struct {
	JWTSecret     string
	TokenDuration time.Duration
}

type GameConfig struct {
	CardsDir         string
	Profile          string
	Timed            bool
	TurnSeconds      int
	SkipCooldown     bool
	QuestionsPerGame int
}

var defaults = map[string]any{
	"http_port":  "8080",
	"grpc_port":  "50051",
	"public_url": "http://localhost:8080",

	"db_host":     "postgres",
	"db_port":     "5432",
	"db_user":     "bingo",
	"db_password": "bingo_password",
	"db_name":     "bingo",
	"db_sslmode":  "disable",

	"redis_host":     "redis",
	"redis_port":     "6379",
	"redis_password": "",
	"redis_db":       0,

	"rabbitmq_host":     "rabbitmq",
	"rabbitmq_port":     "5672",
	"rabbitmq_user":     "guest",
	"rabbitmq_password": "guest",

	"s3_endpoint":   "minio:9000",
	"s3_access_key": "minioadmin",
	"s3_secret_key": "minioadmin",
	"s3_use_ssl":    false,
	"cards_bucket":  "",
	"cards_prefix":  "cards/",

	"jwt_secret":     "",
	"token_duration": 24 * time.Hour,

	"cards_dir":          "./cards",
	"profile":            "classic",
	"timed":              false,
	"turn_seconds":       10,
	"skip_cooldown":      false,
	"questions_per_game": 4,
}

// New returns a viper instance reading the environment with every default
// registered.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	return v
}

// BindFlags lets command line flags override the matching keys. A flag
// named turn-seconds overrides TURN_SECONDS.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		key := strings.ReplaceAll(f.Name, "-", "_")
		if _, ok := defaults[key]; !ok {
			return
		}
		_ = v.BindPFlag(key, f)
	})
}

// LoadDotEnv loads a .env file from the working directory if one exists.
func LoadDotEnv() error {
	err := godotenv.Load()
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func Load() *Config {
	return FromViper(New())
}

func FromViper(v *viper.Viper) *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:  v.GetString("http_port"),
			GRPCPort:  v.GetString("grpc_port"),
			PublicURL: strings.TrimRight(v.GetString("public_url"), "/"),
		},
		DB: DBConfig{
			Host:     v.GetString("db_host"),
			Port:     v.GetString("db_port"),
			User:     v.GetString("db_user"),
			Password: v.GetString("db_password"),
			DBName:   v.GetString("db_name"),
			SSLMode:  v.GetString("db_sslmode"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis_host"),
			Port:     v.GetString("redis_port"),
			Password: v.GetString("redis_password"),
			DB:       v.GetInt("redis_db"),
		},
		RabbitMQ: RabbitMQConfig{
			Host:     v.GetString("rabbitmq_host"),
			Port:     v.GetString("rabbitmq_port"),
			User:     v.GetString("rabbitmq_user"),
			Password: v.GetString("rabbitmq_password"),
		},
		S3: S3Config{
			Endpoint:  v.GetString("s3_endpoint"),
			AccessKey: v.GetString("s3_access_key"),
			SecretKey: v.GetString("s3_secret_key"),
			UseSSL:    v.GetBool("s3_use_ssl"),
			Bucket:    v.GetString("cards_bucket"),
			Prefix:    v.GetString("cards_prefix"),
		},
		Auth: AuthConfig{
			JWTSecret:     v.GetString("jwt_secret"),
			TokenDuration: v.GetDuration("token_duration"),
		},
		Game: GameConfig{
			CardsDir:         v.GetString("cards_dir"),
			Profile:          v.GetString("profile"),
			Timed:            v.GetBool("timed"),
			TurnSeconds:      v.GetInt("turn_seconds"),
			SkipCooldown:     v.GetBool("skip_cooldown"),
			QuestionsPerGame: v.GetInt("questions_per_game"),
		},
	}
}
