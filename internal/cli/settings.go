package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/TomasB/diggeo/internal/config"
	"github.com/TomasB/diggeo/internal/data"
)

const envPrefix = "DIGGEO"

// Settings control how a run behaves. They come from flags or DIGGEO_*
// environment variables; the API key is not among them.
type Settings struct {
	ConfigPath string        `validate:"required"`
	Endpoint   string        `validate:"required,url"`
	Timeout    time.Duration `validate:"gte=0"`
	DNSServer  string        `validate:"omitempty,hostname_port"`
	LogLevel   string        `validate:"oneof=debug info warn error"`
}

// newViper returns a viper instance with all defaults set and the
// environment bound.
func newViper() *viper.Viper {
	vip := viper.New()

	vip.SetDefault("config", config.DefaultPath)
	vip.SetDefault("endpoint", data.DefaultEndpoint)
	vip.SetDefault("timeout", time.Duration(0))
	vip.SetDefault("dns-server", "")
	vip.SetDefault("log-level", "warn")

	vip.SetEnvPrefix(envPrefix)
	vip.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	vip.AutomaticEnv()

	return vip
}

func addSettingsFlags(flags *pflag.FlagSet) {
	flags.String("config", config.DefaultPath, "path to the file holding api_key")
	flags.String("endpoint", data.DefaultEndpoint, "geolocation API endpoint")
	flags.Duration("timeout", 0, "timeout for each lookup, 0 waits forever")
	flags.String("dns-server", "", "resolve --dig through this DNS server (host:port) instead of the system resolver")
	flags.String("log-level", "warn", "log level: debug | info | warn | error")
}

func loadSettings(vip *viper.Viper, flags *pflag.FlagSet) (Settings, error) {
	if err := vip.BindPFlags(flags); err != nil {
		return Settings{}, fmt.Errorf("could not bind flags: %w", err)
	}

	s := Settings{
		ConfigPath: vip.GetString("config"),
		Endpoint:   vip.GetString("endpoint"),
		Timeout:    vip.GetDuration("timeout"),
		DNSServer:  vip.GetString("dns-server"),
		LogLevel:   strings.ToLower(vip.GetString("log-level")),
	}

	if err := validator.New().Struct(s); err != nil {
		return Settings{}, fmt.Errorf("invalid settings: %w", err)
	}

	return s, nil
}
