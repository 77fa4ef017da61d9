package config

import "time"

// App holds the settings every application reads from the environment.
type App struct {
	Name            string        `env:"APP_NAME" envDefault:"anvil"`
	Env             string        `env:"APP_ENV" envDefault:"production"`
	Address         string        `env:"APP_ADDRESS" envDefault:":8080"`
	URL             string        `env:"APP_URL" envDefault:"http://localhost:8080"`
	ConfigDir       string        `env:"APP_CONFIG_DIR" envDefault:"config"`
	Debug           bool          `env:"APP_DEBUG" envDefault:"false"`
	ShutdownTimeout time.Duration `env:"APP_SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

// IsDevelopment reports whether the app runs locally or with debug on.
func (a App) IsDevelopment() bool {
	return a.Debug || a.Env == "development" || a.Env == "local"
}
