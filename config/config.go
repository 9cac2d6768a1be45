package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port string
	}
	Log struct {
		Level string
	}
	Database struct {
		DSN string
	}
	Redis struct {
		Addr     string
		Password string
		DB       int
	}
	Queue struct {
		Backend string // memory | redis
	}
	History struct {
		Backend string // memory | redis | postgres
		Limit   int
	}
	Match MatchConfig
}

// MatchConfig 对局相关的全部计时
type MatchConfig struct {
	Countdown       time.Duration `mapstructure:"countdown"`
	QueueTimeout    time.Duration `mapstructure:"queue_timeout"`
	EndGrace        time.Duration `mapstructure:"end_grace"`
	RematchTimeout  time.Duration `mapstructure:"rematch_timeout"`
	TeardownDelay   time.Duration `mapstructure:"teardown_delay"`
	DisconnectGrace time.Duration `mapstructure:"disconnect_grace"`
	RoomIdleTimeout time.Duration `mapstructure:"room_idle_timeout"`
	JanitorInterval time.Duration `mapstructure:"janitor_interval"`
	UpdateInterval  time.Duration `mapstructure:"update_interval"`
}

var C Config

const defaultPath = "config/config.yaml"

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", ":3001")
	v.SetDefault("log.level", "info")
	v.SetDefault("database.dsn", "")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("queue.backend", "memory")
	v.SetDefault("history.backend", "memory")
	v.SetDefault("history.limit", 100)

	v.SetDefault("match.countdown", 3*time.Second)
	v.SetDefault("match.queue_timeout", 120*time.Second)
	v.SetDefault("match.end_grace", time.Second)
	v.SetDefault("match.rematch_timeout", 10*time.Second)
	v.SetDefault("match.teardown_delay", 2*time.Second)
	v.SetDefault("match.disconnect_grace", 60*time.Second)
	v.SetDefault("match.room_idle_timeout", time.Hour)
	v.SetDefault("match.janitor_interval", time.Minute)
	v.SetDefault("match.update_interval", time.Duration(0))
}

// LoadFile 读取配置文件（可不存在），再叠加 BLOCKDUEL_* 环境变量
func LoadFile(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("BLOCKDUEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return Config{}, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("stat config %s: %w", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) Validate() error {
	switch c.Queue.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown queue backend %q", c.Queue.Backend)
	}
	switch c.History.Backend {
	case "memory", "redis":
	case "postgres":
		if c.Database.DSN == "" {
			return errors.New("history backend postgres requires database.dsn")
		}
	default:
		return fmt.Errorf("unknown history backend %q", c.History.Backend)
	}
	if c.Match.Countdown < 0 || c.Match.EndGrace < 0 || c.Match.TeardownDelay < 0 {
		return errors.New("match timings must not be negative")
	}
	if c.Match.QueueTimeout <= 0 || c.Match.RematchTimeout <= 0 || c.Match.DisconnectGrace <= 0 {
		return errors.New("queue, rematch and disconnect timeouts must be positive")
	}
	return nil
}

func Load() {
	c, err := LoadFile(defaultPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	C = c
}
