package app

import (
	"time"

	"github.com/spf13/viper"
)

// Config is the application specific configuration passed to App.Init.
type Config map[string]interface{}

// BaseConfig contains the base configuration for the process, as well as the
// application itself.
type BaseConfig struct {
	LogLevel string `mapstructure:"log_level"`

	AppName string `mapstructure:"app_name"`

	ListenAddress      string `mapstructure:"listen_address"`
	DebugListenAddress string `mapstructure:"debug_listen_address"`

	ShutdownGracePeriod time.Duration `mapstructure:"shutdown_grace_period"`

	// Comma separated CORS origins. Empty disables CORS.
	AllowedOrigins       string `mapstructure:"allowed_origins"`
	EnableRequestLogging bool   `mapstructure:"enable_request_logging"`

	EnablePprof  bool `mapstructure:"enable_pprof"`
	EnableExpvar bool `mapstructure:"enable_expvar"`

	// Ballast for improving Go GC performance. Capacity is limited to 50% of
	// the total memory.
	EnableBallast   bool    `mapstructure:"enable_ballast"`
	BallastCapacity float32 `mapstructure:"ballast_capacity"`

	// Periodically terminate the application when there's a memory leak
	EnableMemoryLeakCron   bool   `mapstructure:"enable_memory_leak_cron"`
	MemoryLeakCronSchedule string `mapstructure:"memory_leak_cron_schedule"`

	NewRelicLicenseKey string `mapstructure:"new_relic_license_key"`

	// Arbitrary configuration that the application defines. Decode it with
	// mapstructure.Decode.
	AppConfig Config `mapstructure:"app"`
}

var defaultConfig = BaseConfig{
	LogLevel: "info",

	ListenAddress:      ":8085",
	DebugListenAddress: ":8123",

	ShutdownGracePeriod: 30 * time.Second,

	EnablePprof:  true,
	EnableExpvar: true,

	EnableBallast:   false,
	BallastCapacity: 0.333,

	EnableMemoryLeakCron:   false,
	MemoryLeakCronSchedule: "0 5 * * *",
}

func init() {
	_ = viper.BindEnv("log_level", "LOG_LEVEL")

	_ = viper.BindEnv("app_name", "APP_NAME")

	_ = viper.BindEnv("listen_address", "LISTEN_ADDRESS")
	_ = viper.BindEnv("debug_listen_address", "DEBUG_LISTEN_ADDRESS")

	_ = viper.BindEnv("shutdown_grace_period", "SHUTDOWN_GRACE_PERIOD")

	_ = viper.BindEnv("allowed_origins", "ALLOWED_ORIGINS")
	_ = viper.BindEnv("enable_request_logging", "ENABLE_REQUEST_LOGGING")

	_ = viper.BindEnv("enable_pprof", "ENABLE_PPROF")
	_ = viper.BindEnv("enable_expvar", "ENABLE_EXPVAR")

	_ = viper.BindEnv("enable_ballast", "ENABLE_BALLAST")
	_ = viper.BindEnv("ballast_capacity", "BALLAST_CAPACITY")

	_ = viper.BindEnv("enable_memory_leak_cron", "ENABLE_MEMORY_LEAK_CRON")
	_ = viper.BindEnv("memory_leak_cron_schedule", "MEMORY_LEAK_CRON_SCHEDULE")

	_ = viper.BindEnv("new_relic_license_key", "NEW_RELIC_LICENSE_KEY")
}
