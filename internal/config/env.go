package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides, e.g. MONTHGRID_LISTEN.
const EnvPrefix = "MONTHGRID"

// ApplyEnv overlays environment variables onto cfg.
//
// envFile, when non-empty and present, is loaded first as a dotenv file;
// variables already set in the process environment win over the file.
// Recognised keys (with the MONTHGRID_ prefix): LISTEN, TIMEZONE,
// WEEK_START, ROWS, REFRESH, HORIZON_DAYS, BACKFILL_DAYS, RATE_LIMIT,
// BASIC_AUTH_USERNAME, BASIC_AUTH_PASSWORD.
func ApplyEnv(cfg *Config, envFile string) error {
	if cfg == nil {
		return ErrNilConfig
	}

	if strings.TrimSpace(envFile) != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config: env file %s: %w", envFile, err)
		}
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range []string{
		"listen", "timezone", "week_start", "rows", "refresh",
		"horizon_days", "backfill_days", "rate_limit",
		"basic_auth.username", "basic_auth.password",
	} {
		_ = v.BindEnv(key)
	}

	if v.IsSet("listen") {
		cfg.Listen = v.GetString("listen")
	}
	if v.IsSet("timezone") {
		cfg.Timezone = v.GetString("timezone")
	}
	if v.IsSet("week_start") {
		cfg.WeekStart = strings.ToLower(v.GetString("week_start"))
	}
	if v.IsSet("rows") {
		cfg.Rows = v.GetInt("rows")
	}
	if v.IsSet("refresh") {
		cfg.RefreshCron = v.GetString("refresh")
	}
	if v.IsSet("horizon_days") {
		cfg.HorizonDays = v.GetInt("horizon_days")
	}
	if v.IsSet("backfill_days") {
		cfg.BackfillDays = v.GetInt("backfill_days")
	}
	if v.IsSet("rate_limit") {
		cfg.RateLimit = v.GetInt("rate_limit")
	}

	user := v.GetString("basic_auth.username")
	pass := v.GetString("basic_auth.password")
	if user != "" || pass != "" {
		if cfg.BasicAuth == nil {
			cfg.BasicAuth = &BasicAuthConfig{}
		}
		if user != "" {
			cfg.BasicAuth.Username = user
		}
		if pass != "" {
			cfg.BasicAuth.Password = pass
		}
	}

	cfg.Normalize()
	return nil
}
