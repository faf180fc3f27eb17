package core

import (
	"fmt"
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		AppName  string
		Env      string // DEV (local; default), TEST, QA, PROD
		Debug    bool
		TestMode bool
		Build    string

		SecretKey       string
		FrontendBaseURL string
		DefaultFromName string
		DefaultFromAddr string
		OpsEmails       []string
		SendgridApiKey  string
		RollbarToken    string

		Server      ServerConfig
		Database    DatabaseConfig
		Upload      UploadConfig
		ObjectStore ObjectStoreConfig
	}

	ServerConfig struct {
		Host            string
		Port            int
		DebugHost       string
		ReadTimeout     time.Duration
		WriteTimeout    time.Duration
		ShutdownTimeout time.Duration
	}

	DatabaseConfig struct {
		Engine        string
		Name          string
		Host          string
		Port          int
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	// UploadConfig drives the attachment pipeline on both sides: the client
	// saga reads BaseURL and the timeouts, the API reads ExpireSeconds.
	UploadConfig struct {
		BaseURL        string
		ExpireSeconds  int
		RequestTimeout time.Duration
		PutTimeout     time.Duration
	}

	ObjectStoreConfig struct {
		Backend       string // "s3" or "memory"
		Bucket        string
		Region        string
		PublicBaseURL string // base URL served by the in-memory store
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	// defaults
	v.SetDefault("debug", true)
	v.SetDefault("build", "dev")
	v.SetDefault("appName", "Darasa")
	v.SetDefault("secretKey", "k4r!bu-d4r4s4-(@sh1k4r1=ya-s1r1)#b4dil1sha^kabla+ya;prod")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("defaultFromName", "Darasa")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("opsEmails", []string{})
	v.SetDefault("serverHost", "0.0.0.0")
	v.SetDefault("serverPort", 8000)
	v.SetDefault("serverDebugHost", "0.0.0.0:4000")
	v.SetDefault("serverReadTimeout", 5*time.Second)
	v.SetDefault("serverWriteTimeout", 30*time.Second)
	v.SetDefault("serverShutdownTimeout", 5*time.Second)
	v.SetDefault("dbEngine", "postgres")
	v.SetDefault("dbName", "darasa")
	v.SetDefault("dbHost", "localhost")
	v.SetDefault("dbPort", 5432)
	v.SetDefault("dbDisableTLS", true)
	v.SetDefault("uploadBaseURL", "http://localhost:8000")
	v.SetDefault("uploadExpireSeconds", 300)
	v.SetDefault("uploadRequestTimeout", 15*time.Second)
	v.SetDefault("uploadPutTimeout", 5*time.Minute)
	v.SetDefault("objectStoreBackend", "memory")
	v.SetDefault("objectStoreBucket", "darasa-attachments")
	v.SetDefault("objectStoreRegion", "us-east-1")
	v.SetDefault("objectStorePublicBaseURL", "http://localhost:8000/objects")

	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
	}
	v.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(Getwd(), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		AppName:         v.GetString("appName"),
		Env:             env,
		Debug:           v.GetBool("debug"),
		TestMode:        env == "TEST",
		Build:           v.GetString("build"),
		SecretKey:       v.GetString("secretKey"),
		FrontendBaseURL: v.GetString("frontendBaseURL"),
		DefaultFromName: v.GetString("defaultFromName"),
		DefaultFromAddr: v.GetString("defaultFromEmail"),
		OpsEmails:       v.GetStringSlice("opsEmails"),
		SendgridApiKey:  v.GetString("sendgridApiKey"),
		RollbarToken:    v.GetString("rollbarToken"),
		Server: ServerConfig{
			Host:            v.GetString("serverHost"),
			Port:            v.GetInt("serverPort"),
			DebugHost:       v.GetString("serverDebugHost"),
			ReadTimeout:     v.GetDuration("serverReadTimeout"),
			WriteTimeout:    v.GetDuration("serverWriteTimeout"),
			ShutdownTimeout: v.GetDuration("serverShutdownTimeout"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("dbEngine"),
			Name:          v.GetString("dbName"),
			Host:          v.GetString("dbHost"),
			Port:          v.GetInt("dbPort"),
			User:          v.GetString("dbUser"),
			Password:      v.GetString("dbPassword"),
			AdminUser:     v.GetString("dbAdminUser"),
			AdminPassword: v.GetString("dbAdminPassword"),
			DisableTLS:    v.GetBool("dbDisableTLS"),
		},
		Upload: UploadConfig{
			BaseURL:        v.GetString("uploadBaseURL"),
			ExpireSeconds:  v.GetInt("uploadExpireSeconds"),
			RequestTimeout: v.GetDuration("uploadRequestTimeout"),
			PutTimeout:     v.GetDuration("uploadPutTimeout"),
		},
		ObjectStore: ObjectStoreConfig{
			Backend:       v.GetString("objectStoreBackend"),
			Bucket:        v.GetString("objectStoreBucket"),
			Region:        v.GetString("objectStoreRegion"),
			PublicBaseURL: v.GetString("objectStorePublicBaseURL"),
		},
	}
}

func (c *Config) DefaultFromEmail() mail.Address {
	return mail.Address{Name: c.DefaultFromName, Address: c.DefaultFromAddr}
}

func (c *Config) OpsRecipients() []mail.Address {
	addrs := make([]mail.Address, 0, len(c.OpsEmails))
	for _, a := range c.OpsEmails {
		addrs = append(addrs, mail.Address{Address: a})
	}
	return addrs
}

func (c ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c DatabaseConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
