package config

import (
	"flag"
	"fmt"

	"github.com/caarlos0/env/v6"
)

type Config struct {
	Database *Database
	HTTP     *HTTP
	Events   *Events
	Auth     *Auth
	App      *App
}

const AppModeProduction = "PROD"
const AppModeDevelop = "DEV"

type App struct {
	LogLevel string `env:"LOG_LEVEL"`
	Mode     string
	// ReportTimezone is the location used to bucket day-grouped reports.
	ReportTimezone string `env:"REPORT_TIMEZONE"`
}

type Database struct {
	DSN string `env:"DATABASE_URI"`
}

type HTTP struct {
	HostString string `env:"RUN_ADDRESS"`
}

type Events struct {
	// AMQPURL is optional; empty disables status-event publication.
	AMQPURL string `env:"AMQP_URL"`
}

type Auth struct {
	// TokenKey is the hex-encoded symmetric key shared with the auth service.
	// Empty generates an ephemeral key, usable for local runs only.
	TokenKey string `env:"TOKEN_KEY"`
}

func NewConfig() (*Config, error) {
	var db Database
	var http HTTP
	var events Events
	var auth Auth
	var app App

	flag.StringVar(&db.DSN, "d", "", "Database string")
	flag.StringVar(&http.HostString, "a", `localhost:8080`, "HTTP server endpoint")
	flag.StringVar(&events.AMQPURL, "q", "", "AMQP broker address")
	flag.StringVar(&auth.TokenKey, "k", "", "Token key (hex)")
	flag.StringVar(&app.LogLevel, "l", `error`, "Log level")
	flag.StringVar(&app.Mode, "m", `DEV`, "PROD / DEV")
	flag.StringVar(&app.ReportTimezone, "t", `UTC`, "Reporting timezone")
	flag.Parse()

	err := env.Parse(&db)
	if err != nil {
		return nil, fmt.Errorf("error parsing env database config: %w", err)
	}
	err = env.Parse(&http)
	if err != nil {
		return nil, fmt.Errorf("error parsing http config: %w", err)
	}
	err = env.Parse(&events)
	if err != nil {
		return nil, fmt.Errorf("error parsing events config: %w", err)
	}
	err = env.Parse(&auth)
	if err != nil {
		return nil, fmt.Errorf("error parsing auth config: %w", err)
	}
	err = env.Parse(&app)
	if err != nil {
		return nil, fmt.Errorf("error parsing app config: %w", err)
	}

	config := Config{
		Database: &db,
		HTTP:     &http,
		Events:   &events,
		Auth:     &auth,
		App:      &app,
	}

	return &config, nil
}
