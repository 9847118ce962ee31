// Package config carga la configuración del servicio: YAML base con
// overrides por variables de entorno (los secretos normalmente vienen
// solo por entorno).
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dropDatabas3/cuentas/internal/email"
)

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type DatabaseConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"max_conns"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"` // vacío = rate limiting deshabilitado
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type JWTConfig struct {
	Issuer        string        `yaml:"issuer"`
	AccessSecret  string        `yaml:"access_secret"`
	RefreshSecret string        `yaml:"refresh_secret"`
	AccessTTL     time.Duration `yaml:"access_ttl"`
	RefreshTTL    time.Duration `yaml:"refresh_ttl"`
}

type SignatureConfig struct {
	PublicKeyFile  string `yaml:"public_key_file"`
	PrivateKeyFile string `yaml:"private_key_file"`
}

type OTPConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type Config struct {
	Env       string           `yaml:"env"` // dev | prod
	Server    ServerConfig     `yaml:"server"`
	Database  DatabaseConfig   `yaml:"database"`
	Redis     RedisConfig      `yaml:"redis"`
	SMTP      email.SMTPConfig `yaml:"smtp"`
	JWT       JWTConfig        `yaml:"jwt"`
	Signature SignatureConfig  `yaml:"signature"`
	OTP       OTPConfig        `yaml:"otp"`
	Log       LogConfig        `yaml:"log"`
}

// Defaults retorna la configuración base.
func Defaults() *Config {
	return &Config{
		Env:      "dev",
		Server:   ServerConfig{Addr: ":8080"},
		Database: DatabaseConfig{MaxConns: 10},
		JWT: JWTConfig{
			Issuer:     "cuentas-by-dropdatabas3",
			AccessTTL:  15 * time.Minute,
			RefreshTTL: 24 * time.Hour,
		},
		Signature: SignatureConfig{
			PublicKeyFile:  "keys/signature_public.pem",
			PrivateKeyFile: "keys/signature_private.pem",
		},
		OTP: OTPConfig{TTL: 3 * time.Minute},
		Log: LogConfig{Level: "info"},
	}
}

// Load lee el YAML (si path no es vacío), aplica overrides de entorno
// y valida.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	setStr := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setStr(&c.Env, "CUENTAS_ENV")
	setStr(&c.Server.Addr, "CUENTAS_HTTP_ADDR")
	setStr(&c.Database.DSN, "CUENTAS_DB_DSN")
	setStr(&c.Redis.Addr, "CUENTAS_REDIS_ADDR")
	setStr(&c.Redis.Password, "CUENTAS_REDIS_PASSWORD")
	setStr(&c.SMTP.Host, "CUENTAS_SMTP_HOST")
	setStr(&c.SMTP.From, "CUENTAS_SMTP_FROM")
	setStr(&c.SMTP.Username, "CUENTAS_SMTP_USER")
	setStr(&c.SMTP.Password, "CUENTAS_SMTP_PASS")
	setStr(&c.JWT.AccessSecret, "CUENTAS_JWT_ACCESS_SECRET")
	setStr(&c.JWT.RefreshSecret, "CUENTAS_JWT_REFRESH_SECRET")
	setStr(&c.Signature.PublicKeyFile, "CUENTAS_SIGNATURE_PUBLIC_KEY")
	setStr(&c.Signature.PrivateKeyFile, "CUENTAS_SIGNATURE_PRIVATE_KEY")
	setStr(&c.Log.Level, "CUENTAS_LOG_LEVEL")

	if v := os.Getenv("CUENTAS_SMTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.SMTP.Port = port
		}
	}
	if v := os.Getenv("CUENTAS_OTP_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.OTP.TTL = d
		}
	}
}

// Validate falla temprano si falta algo sin lo que el servicio no
// puede operar.
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return fmt.Errorf("config: database.dsn es requerido")
	}
	if c.JWT.AccessSecret == "" || c.JWT.RefreshSecret == "" {
		return fmt.Errorf("config: jwt.access_secret y jwt.refresh_secret son requeridos")
	}
	if c.JWT.AccessSecret == c.JWT.RefreshSecret {
		return fmt.Errorf("config: los secretos de access y refresh deben ser distintos")
	}
	if c.Signature.PublicKeyFile == "" || c.Signature.PrivateKeyFile == "" {
		return fmt.Errorf("config: faltan los archivos de claves de firma")
	}
	if c.OTP.TTL <= 0 {
		return fmt.Errorf("config: otp.ttl debe ser positivo")
	}
	return nil
}
