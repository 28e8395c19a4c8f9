package config

import "time"

type DBConfig struct {
	URL             string        `mapstructure:"url" validate:"required"`
	MaxOpenConns    int32         `mapstructure:"max_open_conns"`
	MinIdleConns    int32         `mapstructure:"min_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	HealthTimeout   time.Duration `mapstructure:"health_timeout"`
}

type RedisConfig struct {
	URL          string        `mapstructure:"url" validate:"required"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
}

type SchedulerConfig struct {
	Interval          time.Duration `mapstructure:"interval" validate:"required"`
	BatchSize         int           `mapstructure:"batch_size" validate:"gte=1"`
	VisibilityTimeout time.Duration `mapstructure:"visibility_timeout" validate:"required"`
}

type ReclaimerConfig struct {
	Interval time.Duration `mapstructure:"interval" validate:"required"`
	Limit    int           `mapstructure:"limit" validate:"gte=1"`
}

type ExecutorConfig struct {
	WorkerCount    int           `mapstructure:"worker_count" validate:"gte=1"`
	JobChannelSize int           `mapstructure:"job_channel_size" validate:"gte=1"`
	MaxTimeout     time.Duration `mapstructure:"max_timeout" validate:"required"`
	FlapThreshold  int           `mapstructure:"flap_threshold" validate:"gte=1"`
}

type RegionHealthConfig struct {
	Interval     time.Duration `mapstructure:"interval" validate:"required"`
	ProbeTimeout time.Duration `mapstructure:"probe_timeout" validate:"required"`
}

// AgentConfig is shared by the core (client side) and the agent binary
// (server side). SharedKey authenticates /execute calls in both directions.
type AgentConfig struct {
	Port       int           `mapstructure:"port"`
	RegionCode string        `mapstructure:"region_code"`
	SharedKey  string        `mapstructure:"shared_key"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type HooksConfig struct {
	InternalKey string `mapstructure:"internal_key" validate:"required"`
}

// AgentFileConfig is the standalone agent binary's whole config file.
type AgentFileConfig struct {
	Env         string       `mapstructure:"env"`
	ServiceName string       `mapstructure:"service_name"`
	Agent       *AgentConfig `mapstructure:"agent" validate:"required"`
}

type Config struct {
	Env          string              `mapstructure:"env"`
	ServiceName  string              `mapstructure:"service_name"`
	Port         int                 `mapstructure:"port"`
	DB           *DBConfig           `mapstructure:"db" validate:"required"`
	Redis        *RedisConfig        `mapstructure:"redis" validate:"required"`
	Scheduler    *SchedulerConfig    `mapstructure:"scheduler" validate:"required"`
	Reclaimer    *ReclaimerConfig    `mapstructure:"reclaimer" validate:"required"`
	Executor     *ExecutorConfig     `mapstructure:"executor" validate:"required"`
	RegionHealth *RegionHealthConfig `mapstructure:"region_health" validate:"required"`
	Agent        *AgentConfig        `mapstructure:"agent"`
	Hooks        *HooksConfig        `mapstructure:"hooks" validate:"required"`
}
