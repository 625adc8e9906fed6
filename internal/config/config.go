// 包 config：集中读取运行配置（.env 文件 + 环境变量），统一默认值与校验
package config

import (
	"path/filepath"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/maxbolgarin/lang"
)

// Config：服务配置；边界与偏移路径缺省时由 GEOTZ_DATA_DIR 推导
type Config struct {
	DataDir      string `env:"GEOTZ_DATA_DIR" env-default:"data/tz"`
	NationalPath string `env:"GEOTZ_NATIONAL_PATH"`
	GlobalPath   string `env:"GEOTZ_GLOBAL_PATH"`
	OffsetsPath  string `env:"GEOTZ_OFFSETS_PATH"`
	// LazyInit 为 true 时在首次查询时加载数据，否则启动即加载，失败直接退出
	LazyInit bool `env:"GEOTZ_LAZY_INIT" env-default:"false"`

	Addr    string `env:"ADDR" env-default:":8080"`
	APIBase string `env:"API_BASE" env-default:"/api"`

	GeoIPPath string `env:"GEOIP_PATH"`

	CacheSize int           `env:"CACHE_SIZE" env-default:"100000"`
	CacheTTL  time.Duration `env:"CACHE_TTL" env-default:"1h"`

	RateLimitRPS int `env:"RATE_LIMIT_RPS" env-default:"0"`
	BatchWorkers int `env:"BATCH_WORKERS" env-default:"8"`
	BatchMax     int `env:"BATCH_MAX" env-default:"1000"`

	StatsEnable bool `env:"STATS_ENABLE" env-default:"false"`

	Redis    RedisConfig
	Postgres PostgresConfig
}

type RedisConfig struct {
	Enable bool          `env:"REDIS_ENABLE" env-default:"false"`
	Host   string        `env:"REDIS_HOST" env-default:"127.0.0.1"`
	Port   string        `env:"REDIS_PORT" env-default:"6379"`
	Pass   string        `env:"REDIS_PASS"`
	DB     int           `env:"REDIS_DB" env-default:"0"`
	TTL    time.Duration `env:"REDIS_TTL" env-default:"24h"`
}

func (c RedisConfig) Addr() string { return c.Host + ":" + c.Port }

func (c RedisConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Host, validation.Required.When(c.Enable)),
		validation.Field(&c.Port, validation.Required.When(c.Enable)),
		validation.Field(&c.DB, validation.Min(0)),
		validation.Field(&c.TTL, validation.Min(time.Duration(0))),
	)
}

type PostgresConfig struct {
	Host         string `env:"PG_HOST" env-default:"localhost"`
	Port         string `env:"PG_PORT" env-default:"5432"`
	User         string `env:"PG_USER" env-default:"postgres"`
	Password     string `env:"PG_PASSWORD"`
	DB           string `env:"PG_DB" env-default:"geotz"`
	SSLMode      string `env:"PG_SSLMODE" env-default:"disable"`
	MaxOpenConns int    `env:"PG_MAX_OPEN_CONNS" env-default:"20"`
	MaxIdleConns int    `env:"PG_MAX_IDLE_CONNS" env-default:"10"`
}

// DSN 拼接 postgres 连接串
func (c PostgresConfig) DSN() string {
	dsn := "postgres://" + c.User
	if c.Password != "" {
		dsn += ":" + c.Password
	}
	return dsn + "@" + c.Host + ":" + c.Port + "/" + c.DB + "?sslmode=" + c.SSLMode
}

func (c PostgresConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Host, validation.Required),
		validation.Field(&c.DB, validation.Required),
		validation.Field(&c.SSLMode, validation.In("disable", "allow", "prefer", "require", "verify-ca", "verify-full")),
		validation.Field(&c.MaxOpenConns, validation.Min(1)),
		validation.Field(&c.MaxIdleConns, validation.Min(0)),
	)
}

var apiBaseRe = regexp.MustCompile(`^/[A-Za-z0-9/_-]*[A-Za-z0-9_-]$`)

// 文档注释：加载配置
// 约束：envFiles 按顺序加载且不覆盖已存在的环境变量，文件缺失静默忽略；随后读取环境变量并校验。
func Load(envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		_ = godotenv.Load(f)
	}
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.prepareAndValidate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) prepareAndValidate() error {
	cfg.NationalPath = lang.Check(cfg.NationalPath, filepath.Join(cfg.DataDir, "national.geojson"))
	cfg.GlobalPath = lang.Check(cfg.GlobalPath, filepath.Join(cfg.DataDir, "global.geojson"))
	cfg.OffsetsPath = lang.Check(cfg.OffsetsPath, filepath.Join(cfg.DataDir, "timeZones.txt"))

	return validation.ValidateStruct(cfg,
		validation.Field(&cfg.NationalPath, validation.Required),
		validation.Field(&cfg.GlobalPath, validation.Required),
		validation.Field(&cfg.OffsetsPath, validation.Required),
		validation.Field(&cfg.Addr, validation.Required),
		validation.Field(&cfg.APIBase, validation.Required, validation.Match(apiBaseRe)),
		validation.Field(&cfg.CacheSize, validation.Min(0)),
		validation.Field(&cfg.CacheTTL, validation.Min(time.Duration(0))),
		validation.Field(&cfg.RateLimitRPS, validation.Min(0)),
		validation.Field(&cfg.BatchWorkers, validation.Required, validation.Min(1)),
		validation.Field(&cfg.BatchMax, validation.Required, validation.Min(1)),
		validation.Field(&cfg.Redis),
		validation.Field(&cfg.Postgres),
	)
}
