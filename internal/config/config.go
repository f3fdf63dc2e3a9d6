package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Config struct {
	App          App          `mapstructure:",squash"`
	Server       Server       `mapstructure:",squash"`
	Database     Database     `mapstructure:",squash"`
	AdSense      AdSense      `mapstructure:",squash"`
	Google       Google       `mapstructure:",squash"`
	Sync         Sync         `mapstructure:",squash"`
	Connectivity Connectivity `mapstructure:",squash"`
	Auth         Auth         `mapstructure:",squash"`
}

type Server struct {
	Host        string   `mapstructure:"host"`
	Port        string   `mapstructure:"port"`
	CorsOrigins []string `mapstructure:"cors_origins"`
}

type Database struct {
	DSN        string `mapstructure:"-"`
	Driver     string `mapstructure:"database_driver"`
	Password   string `mapstructure:"database_password"`
	URL        string `mapstructure:"database_url"`
	User       string `mapstructure:"database_user"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

type AdSense struct {
	BaseURL      string        `mapstructure:"adsense_base_url"`
	AccountID    string        `mapstructure:"adsense_account_id"`
	FetchTimeout time.Duration `mapstructure:"adsense_fetch_timeout"`
}

// Google guarda as credenciais OAuth2 emitidas pelo fluxo de login (externo a este serviço)
type Google struct {
	TokenURL       string    `mapstructure:"google_token_url"`
	ClientID       string    `mapstructure:"google_client_id"`
	ClientSecret   string    `mapstructure:"google_client_secret"`
	RefreshToken   string    `mapstructure:"google_refresh_token"`
	AccessToken    string    `mapstructure:"google_access_token"`
	TokenExpiresAt time.Time `mapstructure:"-"`
}

type App struct {
	LogLevel string `mapstructure:"log_level"`
}

type Auth struct {
	Secret           string        `mapstructure:"auth_secret"`
	TokenTTL         time.Duration `mapstructure:"auth_token_ttl"`
	DeviceSecretHash string        `mapstructure:"device_secret_hash"`
}

type Sync struct {
	Enabled        bool          `mapstructure:"sync_enabled"`
	CronSchedule   string        `mapstructure:"sync_cron"`
	MaxAttempts    int           `mapstructure:"sync_max_attempts"`
	Backoff        time.Duration `mapstructure:"sync_backoff"`
	Timezone       string        `mapstructure:"sync_timezone"`
	SnapshotMaxAge time.Duration `mapstructure:"snapshot_max_age"`
}

type Connectivity struct {
	ProbeAddr    string        `mapstructure:"connectivity_probe_addr"`
	ProbeTimeout time.Duration `mapstructure:"connectivity_probe_timeout"`
}

func SetDefaults() {
	viper.SetDefault("HOST", "localhost")
	viper.SetDefault("PORT", 8000)
	viper.SetDefault("CORS_ORIGINS", "")

	viper.SetDefault("DATABASE_DRIVER", "sqlite3")
	viper.SetDefault("DATABASE_URL", "localhost:5432/adsense")
	viper.SetDefault("DATABASE_USER", "postgres")
	viper.SetDefault("DATABASE_PASSWORD", "root")
	viper.SetDefault("SQLITE_PATH", "shared_state.db")

	viper.SetDefault("ADSENSE_BASE_URL", "https://adsense.googleapis.com")
	viper.SetDefault("ADSENSE_ACCOUNT_ID", "") // vazio = resolve pela API
	viper.SetDefault("ADSENSE_FETCH_TIMEOUT", "20s")

	viper.SetDefault("GOOGLE_TOKEN_URL", "https://oauth2.googleapis.com/token")
	viper.SetDefault("GOOGLE_CLIENT_ID", "your_client_id")
	viper.SetDefault("GOOGLE_CLIENT_SECRET", "your_client_secret")
	viper.SetDefault("GOOGLE_REFRESH_TOKEN", "")
	viper.SetDefault("GOOGLE_ACCESS_TOKEN", "") // ONLY LOCAL

	viper.SetDefault("SYNC_ENABLED", false)
	viper.SetDefault("SYNC_CRON", "*/15 * * * *") // A cada 15 minutos
	viper.SetDefault("SYNC_MAX_ATTEMPTS", 3)
	viper.SetDefault("SYNC_BACKOFF", "500ms")
	viper.SetDefault("SYNC_TIMEZONE", "Local")
	viper.SetDefault("SNAPSHOT_MAX_AGE", "30m")

	viper.SetDefault("CONNECTIVITY_PROBE_ADDR", "adsense.googleapis.com:443")
	viper.SetDefault("CONNECTIVITY_PROBE_TIMEOUT", "3s")

	viper.SetDefault("AUTH_SECRET", "your_secret_key")
	viper.SetDefault("AUTH_TOKEN_TTL", "720h")
	viper.SetDefault("DEVICE_SECRET_HASH", "")

	viper.SetDefault("LOG_LEVEL", "debug")
}

func NewConfig() (*Config, error) {
	// Primeiro carregar o arquivo .env usando godotenv
	loadEnvFile() // ONLY LOCAL

	config := &Config{}

	SetDefaults()

	viper.SetConfigType("env")
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		logrus.Info("Usando variáveis carregadas pelo godotenv (viper não conseguiu ler .env):", err)
	} else {
		logrus.Info("Arquivo .env lido pelo Viper com sucesso")
	}

	err := viper.Unmarshal(&config, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	))
	if err != nil {
		return nil, err
	}

	if err := config.finalize(); err != nil {
		return nil, err
	}

	return config, nil
}

// finalize monta os campos derivados e valida o que não tem default seguro
func (c *Config) finalize() error {
	switch c.Database.Driver {
	case "sqlite3":
		c.Database.DSN = fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000", c.Database.SQLitePath)
	case "postgres":
		c.Database.DSN = fmt.Sprintf(
			"%s://%s:%s@%s",
			c.Database.Driver,
			c.Database.User,
			c.Database.Password,
			c.Database.URL,
		)
	default:
		return fmt.Errorf("config: driver de banco não suportado: %s", c.Database.Driver)
	}

	if c.Sync.MaxAttempts <= 0 {
		c.Sync.MaxAttempts = 1
	}

	if _, err := c.Location(); err != nil {
		return fmt.Errorf("config: timezone inválida %q: %w", c.Sync.Timezone, err)
	}

	return nil
}

// Location retorna o fuso usado para calcular as janelas de calendário
func (c *Config) Location() (*time.Location, error) {
	if c.Sync.Timezone == "" || c.Sync.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Sync.Timezone)
}

// Função auxiliar para carregar o arquivo .env usando godotenv
func loadEnvFile() {
	cwd, err := os.Getwd()
	if err != nil {
		logrus.Warn("Não foi possível obter o diretório atual:", err)
		return
	}

	locations := []string{
		filepath.Join(cwd, ".env"),
		filepath.Join(filepath.Dir(cwd), ".env"),
		filepath.Join(cwd, "../../.env"),
	}

	for _, location := range locations {
		logrus.Debug("Tentando carregar .env de:", location)
		err := godotenv.Load(location)
		if err == nil {
			logrus.Info("Arquivo .env carregado com sucesso de:", location)
			return
		}
	}

	logrus.Warn("Não foi possível carregar o arquivo .env de nenhuma localização conhecida")
}
