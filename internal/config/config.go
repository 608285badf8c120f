package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/sellerdesk/support-portal/internal/routing"
	"github.com/sellerdesk/support-portal/internal/sla"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Slack    SlackConfig
	SLA      SLAConfig
	Policy   PolicyConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
	PublicURL             string
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	MigrationsDir  string
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr            string
	Password        string
	DB              int
	PoolSize        int
	DialTimeout     time.Duration
	HistoryCacheTTL time.Duration
	DeliveryTTL     time.Duration
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
}

// SlackConfig holds delivery credentials and the channel table.
type SlackConfig struct {
	BotToken   string
	WebhookURL string
	APIURL     string
	Channels   routing.Table
}

// SLAConfig configures the business calendar and the breach monitor.
type SLAConfig struct {
	Timezone          string
	WorkdayStartHour  int
	WorkdayEndHour    int
	Workdays          []time.Weekday
	Holidays          []sla.Holiday
	AtRiskMinutes     int
	MonitorSchedule   string
	MonitorEnabled    bool
	HistoryWindowDays int
}

// PolicyConfig points at an optional policy file overriding the embedded one.
type PolicyConfig struct {
	File string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	workdays, err := parseWorkdays(getEnv("SLA_WORKDAYS", "MON,TUE,WED,THU,FRI"))
	if err != nil {
		return nil, err
	}
	holidays, err := parseHolidays(os.Getenv("SLA_HOLIDAYS"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "support-portal"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
			PublicURL:             strings.TrimRight(getEnv("APP_PUBLIC_URL", "http://localhost:5173"), "/"),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			MigrationsDir:  getEnv("POSTGRES_MIGRATIONS_DIR", "migrations"),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:            getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password:        os.Getenv("REDIS_PASSWORD"),
			DB:              redisDB,
			PoolSize:        getEnvAsInt("REDIS_POOL_SIZE", 10),
			DialTimeout:     time.Duration(getEnvAsInt("REDIS_DIAL_TIMEOUT_SECONDS", 3)) * time.Second,
			HistoryCacheTTL: time.Duration(getEnvAsInt("REDIS_HISTORY_CACHE_TTL_SECONDS", 300)) * time.Second,
			DeliveryTTL:     time.Duration(getEnvAsInt("REDIS_DELIVERY_TTL_SECONDS", 86400)) * time.Second,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		Slack: SlackConfig{
			BotToken:   os.Getenv("SLACK_BOT_TOKEN"),
			WebhookURL: os.Getenv("SLACK_WEBHOOK_URL"),
			APIURL:     os.Getenv("SLACK_API_URL"),
			Channels:   ChannelTable(os.Environ()),
		},
		SLA: SLAConfig{
			Timezone:          getEnv("SLA_TIMEZONE", "UTC"),
			WorkdayStartHour:  getEnvAsInt("SLA_WORKDAY_START_HOUR", 9),
			WorkdayEndHour:    getEnvAsInt("SLA_WORKDAY_END_HOUR", 18),
			Workdays:          workdays,
			Holidays:          holidays,
			AtRiskMinutes:     getEnvAsInt("SLA_AT_RISK_MINUTES", 120),
			MonitorSchedule:   getEnv("SLA_MONITOR_SCHEDULE", "@every 5m"),
			MonitorEnabled:    getEnvAsBool("SLA_MONITOR_ENABLED", true),
			HistoryWindowDays: getEnvAsInt("VENDOR_HISTORY_WINDOW_DAYS", 90),
		},
		Policy: PolicyConfig{
			File: os.Getenv("POLICY_FILE"),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// CalendarOptions converts the SLA settings for the calculator.
func (s SLAConfig) CalendarOptions() (sla.CalendarOptions, error) {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return sla.CalendarOptions{}, fmt.Errorf("invalid SLA_TIMEZONE: %w", err)
	}
	if len(s.Workdays) == 0 {
		return sla.CalendarOptions{}, fmt.Errorf("sla calendar has no workdays")
	}
	return sla.CalendarOptions{
		Location:  loc,
		Workdays:  s.Workdays,
		DayStart:  time.Duration(s.WorkdayStartHour) * time.Hour,
		DayEnd:    time.Duration(s.WorkdayEndHour) * time.Hour,
		Holidays:  s.Holidays,
		AtRiskFor: time.Duration(s.AtRiskMinutes) * time.Minute,
	}, nil
}

const (
	envDeptPrefix = "SLACK_CHANNEL_DEPT_"
	envCXPrefix   = "SLACK_CHANNEL_CX_"
)

// ChannelTable builds the routing table from KEY=VALUE environment pairs.
// Department and CX sub-team channels are discovered by prefix.
func ChannelTable(environ []string) routing.Table {
	table := routing.Table{
		Departments: map[string]string{},
		CXSubteams:  map[string]string{},
	}
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		value = strings.TrimSpace(value)
		if !ok || value == "" {
			continue
		}
		switch {
		case key == "SLACK_CHANNEL_URGENT":
			table.Urgent = value
		case key == "SLACK_CHANNEL_ESCALATION":
			table.Escalation = value
		case key == "SLACK_CHANNEL_SLA_BREACH":
			table.SLABreach = value
		case key == "SLACK_CHANNEL_DEFAULT":
			table.Fallback = value
		case strings.HasPrefix(key, envDeptPrefix) && len(key) > len(envDeptPrefix):
			table.Departments[routing.Key(strings.TrimPrefix(key, envDeptPrefix))] = value
		case strings.HasPrefix(key, envCXPrefix) && len(key) > len(envCXPrefix):
			table.CXSubteams[routing.Key(strings.TrimPrefix(key, envCXPrefix))] = value
		}
	}
	return table
}

var weekdays = map[string]time.Weekday{
	"SUN": time.Sunday, "MON": time.Monday, "TUE": time.Tuesday, "WED": time.Wednesday,
	"THU": time.Thursday, "FRI": time.Friday, "SAT": time.Saturday,
}

func parseWorkdays(raw string) ([]time.Weekday, error) {
	var out []time.Weekday
	for _, part := range strings.Split(raw, ",") {
		part = strings.ToUpper(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		d, ok := weekdays[part]
		if !ok {
			return nil, fmt.Errorf("invalid SLA_WORKDAYS entry %q", part)
		}
		out = append(out, d)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("SLA_WORKDAYS must name at least one day")
	}
	return out, nil
}

func parseHolidays(raw string) ([]sla.Holiday, error) {
	var out []sla.Holiday
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		d, err := time.Parse("01-02", part)
		if err != nil {
			return nil, fmt.Errorf("invalid SLA_HOLIDAYS entry %q: %w", part, err)
		}
		out = append(out, sla.Holiday{Name: part, Month: d.Month(), Day: d.Day()})
	}
	return out, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
