package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用全局配置结构体
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"db"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Log      LogConfig      `mapstructure:"log"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Planner  PlannerConfig  `mapstructure:"planner"`
	Storage  StorageConfig  `mapstructure:"storage"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Port         int        `mapstructure:"port"`
	BaseURL      string     `mapstructure:"base_url"`
	Mode         string     `mapstructure:"mode"` // debug / release / test
	MaxBodyBytes int64      `mapstructure:"max_body_bytes"`
	RateLimit    int        `mapstructure:"rate_limit"` // 每 IP 每分钟请求数，0 关闭
	CORS         CORSConfig `mapstructure:"cors"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// DatabaseConfig 数据库配置（保存的课表）
type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"` // postgres / sqlite
	SQLitePath      string `mapstructure:"sqlite_path"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"sslmode"`
	Timezone        string `mapstructure:"timezone"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // 连接最大生命周期（分钟）
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // 空闲连接最大存活时间（分钟）
}

// DSN 生成 PostgreSQL 连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// MigrateURL golang-migrate 使用的 postgres URL
func (c *DatabaseConfig) MigrateURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode,
	)
}

// RedisConfig Redis 配置（目录二级缓存 + 限流），未启用时降级
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig JWT 校验配置（令牌由外部身份服务签发）
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	Issuer    string `mapstructure:"issuer"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CatalogConfig 课程目录配置
type CatalogConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxConcurrency int           `mapstructure:"max_concurrency"`
	CacheTTL       time.Duration `mapstructure:"cache_ttl"`
	UserAgent      string        `mapstructure:"user_agent"`
}

// PlannerConfig 排课会话与视图配置
type PlannerConfig struct {
	DayStart        string           `mapstructure:"day_start"` // 网格起点，如 "08:00"
	PixelsPerMinute float64          `mapstructure:"pixels_per_minute"`
	Palette         []string         `mapstructure:"palette"`
	NoticeTTL       time.Duration    `mapstructure:"notice_ttl"`
	SessionIdleTTL  time.Duration    `mapstructure:"session_idle_ttl"`
	JanitorInterval time.Duration    `mapstructure:"janitor_interval"`
	Timezone        string           `mapstructure:"timezone"`   // ICS 导出时区
	TermStart       string           `mapstructure:"term_start"` // YYYY-MM-DD，空则取当前周
	TermEnd         string           `mapstructure:"term_end"`
	Classifier      ClassifierConfig `mapstructure:"classifier"`
}

// ClassifierConfig 教学班分类规则覆盖项
type ClassifierConfig struct {
	EnrollmentMarkers    []string `mapstructure:"enrollment_markers"`
	NonEnrollmentMarkers []string `mapstructure:"non_enrollment_markers"`
	LectureSuffixes      []string `mapstructure:"lecture_suffixes"`
}

// StorageConfig MinIO 对象存储配置（导出分享链接）
type StorageConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Endpoint   string        `mapstructure:"endpoint"`
	AccessKey  string        `mapstructure:"access_key"`
	SecretKey  string        `mapstructure:"secret_key"`
	UseSSL     bool          `mapstructure:"use_ssl"`
	Bucket     string        `mapstructure:"bucket"`
	PresignTTL time.Duration `mapstructure:"presign_ttl"`
}

// Load 从配置文件与环境变量加载配置
// 优先级：环境变量 > 配置文件 > 默认值
func Load(path string) (*Config, error) {
	v := viper.New()

	// ── 默认值 ──
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.max_body_bytes", 1<<20)
	v.SetDefault("server.rate_limit", 120)
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:5173"})

	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.sqlite_path", "planner.db")
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "course_planner")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "America/Vancouver")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime", 60)  // 60分钟
	v.SetDefault("db.conn_max_idle_time", 30) // 30分钟

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.issuer", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("catalog.base_url", "https://www.sfu.ca/bin/wcm/course-outlines")
	v.SetDefault("catalog.timeout", "10s")
	v.SetDefault("catalog.max_concurrency", 8)
	v.SetDefault("catalog.cache_ttl", "30m")
	v.SetDefault("catalog.user_agent", "course-planner/1.0")

	v.SetDefault("planner.day_start", "08:00")
	v.SetDefault("planner.pixels_per_minute", 1.0)
	v.SetDefault("planner.palette", []string{
		"#4E79A7", "#F28E2B", "#E15759", "#76B7B2", "#59A14F",
		"#EDC948", "#B07AA1", "#FF9DA7", "#9C755F", "#BAB0AC",
	})
	v.SetDefault("planner.notice_ttl", "5s")
	v.SetDefault("planner.session_idle_ttl", "12h")
	v.SetDefault("planner.janitor_interval", "10m")
	v.SetDefault("planner.timezone", "America/Vancouver")
	v.SetDefault("planner.term_start", "")
	v.SetDefault("planner.term_end", "")
	v.SetDefault("planner.classifier.enrollment_markers", []string{"e"})
	v.SetDefault("planner.classifier.non_enrollment_markers", []string{"n"})
	v.SetDefault("planner.classifier.lecture_suffixes", []string{"00"})

	v.SetDefault("storage.enabled", false)
	v.SetDefault("storage.endpoint", "localhost:9000")
	v.SetDefault("storage.use_ssl", false)
	v.SetDefault("storage.bucket", "timetables")
	v.SetDefault("storage.presign_ttl", "24h")

	// ── 配置文件 ──
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// ── 环境变量 ──
	v.SetEnvPrefix("PLANNER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		// 配置文件不存在时仅依赖默认值和环境变量
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	// ── 关键配置校验 ──
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate 校验关键配置项
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 不能为空")
	}
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 长度不能少于 16 字符")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("配置校验失败: server.port 必须在 1-65535 之间")
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("配置校验失败: db.driver 仅支持 postgres / sqlite，当前为 %q", c.Database.Driver)
	}
	if c.Catalog.BaseURL == "" {
		return fmt.Errorf("配置校验失败: catalog.base_url 不能为空")
	}
	if _, err := c.Planner.DayStartMinutes(); err != nil {
		return err
	}
	if len(c.Planner.Palette) == 0 {
		return fmt.Errorf("配置校验失败: planner.palette 不能为空")
	}
	if _, _, err := c.Planner.TermWindow(); err != nil {
		return err
	}
	if c.Storage.Enabled && (c.Storage.Endpoint == "" || c.Storage.Bucket == "") {
		return fmt.Errorf("配置校验失败: 启用 storage 时 endpoint 与 bucket 不能为空")
	}
	return nil
}

// DayStartMinutes 解析网格起点（"HH:MM"）
func (p *PlannerConfig) DayStartMinutes() (int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(p.DayStart))
	if err != nil {
		return 0, fmt.Errorf("配置校验失败: planner.day_start 格式应为 HH:MM: %w", err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// Location ICS 导出时区，解析失败时退回 UTC
func (p *PlannerConfig) Location() *time.Location {
	if p.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// TermWindow 解析学期窗口；未配置时返回零值
func (p *PlannerConfig) TermWindow() (time.Time, time.Time, error) {
	var start, end time.Time
	var err error
	if p.TermStart != "" {
		if start, err = time.ParseInLocation("2006-01-02", p.TermStart, p.Location()); err != nil {
			return start, end, fmt.Errorf("配置校验失败: planner.term_start 格式应为 YYYY-MM-DD: %w", err)
		}
	}
	if p.TermEnd != "" {
		if end, err = time.ParseInLocation("2006-01-02", p.TermEnd, p.Location()); err != nil {
			return start, end, fmt.Errorf("配置校验失败: planner.term_end 格式应为 YYYY-MM-DD: %w", err)
		}
	}
	if !start.IsZero() && !end.IsZero() && !end.After(start) {
		return start, end, fmt.Errorf("配置校验失败: planner.term_end 必须晚于 term_start")
	}
	return start, end, nil
}
