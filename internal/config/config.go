// Package config 提供配置管理
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config 应用配置
type Config struct {
	App      AppConfig      `yaml:"app"`
	Database DatabaseConfig `yaml:"database"`
	Solver   SolverConfig   `yaml:"solver"`
	DutyHour DutyHourConfig `yaml:"duty_hour"`
}

// AppConfig 应用基础配置
type AppConfig struct {
	Name     string `yaml:"name"`
	Env      string `yaml:"env"`
	LogLevel string `yaml:"log_level"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Name            string        `yaml:"name"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"ssl_mode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// DSN 返回数据库连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// SolverConfig 求解器配置
type SolverConfig struct {
	Strategy      string        `yaml:"strategy"`       // greedy/cpsat/mip/hybrid/auto
	TimeBudget    time.Duration `yaml:"time_budget"`    // 0 表示不限时
	ExactBackend  string        `yaml:"exact_backend"`  // hybrid 的精确阶段
	Workers       int           `yaml:"workers"`        // 回溯搜索并行度
	MaxIterations int           `yaml:"max_iterations"` // 贪心迭代上限
	MaxNodes      int           `yaml:"max_nodes"`      // 回溯搜索节点预算
	ConstraintSet string        `yaml:"constraint_set"` // default/minimal/strict
}

// DutyHourConfig 工时合规规则配置
type DutyHourConfig struct {
	WeeklyHourCeiling  float64 `yaml:"weekly_hour_ceiling"`  // 28 天滚动窗口周均上限
	MaxConsecutiveDays int     `yaml:"max_consecutive_days"` // 连续出勤天数上限
	SupervisionRatio   int     `yaml:"supervision_ratio"`    // 每名带教最多督导的住院医师数
	JuniorShiftCap     float64 `yaml:"junior_shift_cap"`     // 一年级连续班段小时上限
	SeniorShiftCap     float64 `yaml:"senior_shift_cap"`     // 高年级连续班段小时上限
	ShiftExtension     float64 `yaml:"shift_extension"`      // 高年级交接延长小时数
}

// Load 从环境变量加载配置
func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:     getEnv("APP_NAME", "roster"),
			Env:      getEnv("APP_ENV", "development"),
			LogLevel: getEnv("APP_LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvInt("DB_PORT", 5432),
			Name:            getEnv("DB_NAME", "roster"),
			User:            getEnv("DB_USER", "roster"),
			Password:        getEnv("DB_PASSWORD", "roster123"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Solver: SolverConfig{
			Strategy:      getEnv("SOLVER_STRATEGY", "auto"),
			TimeBudget:    getEnvDuration("SOLVER_TIME_BUDGET", 30*time.Second),
			ExactBackend:  getEnv("SOLVER_EXACT_BACKEND", "cpsat"),
			Workers:       getEnvInt("SOLVER_WORKERS", 4),
			MaxIterations: getEnvInt("SOLVER_MAX_ITERATIONS", 100000),
			MaxNodes:      getEnvInt("SOLVER_MAX_NODES", 2000000),
			ConstraintSet: getEnv("SOLVER_CONSTRAINT_SET", "default"),
		},
		DutyHour: DutyHourConfig{
			WeeklyHourCeiling:  getEnvFloat("DUTY_WEEKLY_HOUR_CEILING", 80),
			MaxConsecutiveDays: getEnvInt("DUTY_MAX_CONSECUTIVE_DAYS", 6),
			SupervisionRatio:   getEnvInt("DUTY_SUPERVISION_RATIO", 4),
			JuniorShiftCap:     getEnvFloat("DUTY_JUNIOR_SHIFT_CAP", 16),
			SeniorShiftCap:     getEnvFloat("DUTY_SENIOR_SHIFT_CAP", 24),
			ShiftExtension:     getEnvFloat("DUTY_SHIFT_EXTENSION", 4),
		},
	}

	return cfg, nil
}

// IsDevelopment 检查是否为开发环境
func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

// IsProduction 检查是否为生产环境
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// IsTest 检查是否为测试环境
func (c *Config) IsTest() bool {
	return c.App.Env == "test"
}

// 辅助函数
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
