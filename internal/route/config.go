package route

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

// LogConfig 日志配置
type LogConfig struct {
	Output string `toml:"output" yaml:"output"`   // "file" 或 "stdout"
	LogDir string `toml:"log_dir" yaml:"log_dir"` // 日志目录
	Level  string `toml:"level" yaml:"level"`     // 日志级别
	Pretty bool   `toml:"pretty" yaml:"pretty"`   // stdout 时使用彩色控制台格式
}

// TopologyConfig 拓扑配置
type TopologyConfig struct {
	NodeCount int     `toml:"node_count" yaml:"node_count"`
	Width     float64 `toml:"width" yaml:"width"`
	Height    float64 `toml:"height" yaml:"height"`
	Margin    float64 `toml:"margin" yaml:"margin"`
	Threshold float64 `toml:"threshold" yaml:"threshold"` // 邻居距离阈值
	Seed      int64   `toml:"seed" yaml:"seed"`
}

// ServerConfig 对外服务配置
type ServerConfig struct {
	Serve       bool   `toml:"serve" yaml:"serve"` // 路由完成后是否继续提供 gRPC 和指标服务
	GRPCAddr    string `toml:"grpc_addr" yaml:"grpc_addr"`
	MetricsAddr string `toml:"metrics_addr" yaml:"metrics_addr"` // 为空时不启动
}

// SimulationConfig 仿真配置
type SimulationConfig struct {
	Flows     int `toml:"flows" yaml:"flows"`           // 随机源/目的对的数量
	Workers   int `toml:"workers" yaml:"workers"`       // 并发路由的 worker 数
	CacheSize int `toml:"cache_size" yaml:"cache_size"` // 路由结果缓存，0 表示关闭
}

// Config 配置文件结构
type Config struct {
	Log        LogConfig        `toml:"log" yaml:"log"`
	Topology   TopologyConfig   `toml:"topology" yaml:"topology"`
	Server     ServerConfig     `toml:"server" yaml:"server"`
	Simulation SimulationConfig `toml:"simulation" yaml:"simulation"`
}

// DefaultConfig 默认配置
func DefaultConfig() Config {
	return Config{
		Log: LogConfig{
			Output: "stdout",
			LogDir: "log",
			Level:  "info",
		},
		Topology: TopologyConfig{
			NodeCount: 10,
			Width:     DefaultAreaWidth,
			Height:    DefaultAreaHeight,
			Margin:    DefaultMargin,
			Threshold: DefaultThreshold,
			Seed:      1,
		},
		Server: ServerConfig{
			GRPCAddr:    ":5001",
			MetricsAddr: ":9090",
		},
		Simulation: SimulationConfig{
			Workers:   runtime.GOMAXPROCS(0),
			CacheSize: 256,
		},
	}
}

// LoadConfig 从文件加载配置，文件中未出现的字段保留默认值
// 按扩展名选择格式：.yaml/.yml 为 YAML，其余为 TOML。path 为空时只使用默认值和环境变量
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			err = yaml.Unmarshal(data, &cfg)
		default:
			err = toml.Unmarshal(data, &cfg)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnv 环境变量覆盖
func (c *Config) applyEnv() error {
	var result *multierror.Error

	if v := os.Getenv("GEOROUTE_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("GEOROUTE_GRPC_ADDR"); v != "" {
		c.Server.GRPCAddr = v
	}
	if v := os.Getenv("GEOROUTE_METRICS_ADDR"); v != "" {
		c.Server.MetricsAddr = v
	}
	if v := os.Getenv("GEOROUTE_NODE_COUNT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("GEOROUTE_NODE_COUNT: %w", err))
		} else {
			c.Topology.NodeCount = n
		}
	}
	if v := os.Getenv("GEOROUTE_THRESHOLD"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("GEOROUTE_THRESHOLD: %w", err))
		} else {
			c.Topology.Threshold = f
		}
	}
	if v := os.Getenv("GEOROUTE_SEED"); v != "" {
		s, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("GEOROUTE_SEED: %w", err))
		} else {
			c.Topology.Seed = s
		}
	}

	return result.ErrorOrNil()
}

// Validate 检查配置，一次返回所有问题
func (c *Config) Validate() error {
	var result *multierror.Error

	t := c.Topology
	if t.NodeCount <= 0 {
		result = multierror.Append(result, fmt.Errorf("topology.node_count: %w", ErrInvalidNodeCount))
	}
	if t.Margin < 0 || t.Width <= 2*t.Margin || t.Height <= 2*t.Margin {
		result = multierror.Append(result, fmt.Errorf("topology %.1fx%.1f margin %.1f: %w",
			t.Width, t.Height, t.Margin, ErrInvalidBounds))
	}
	if !(t.Threshold > 0) {
		result = multierror.Append(result, fmt.Errorf("topology.threshold %v: %w", t.Threshold, ErrInvalidThreshold))
	}

	switch c.Log.Output {
	case "stdout", "file":
	default:
		result = multierror.Append(result, fmt.Errorf("log.output %q: must be \"stdout\" or \"file\"", c.Log.Output))
	}

	s := c.Simulation
	if s.Flows < 0 {
		result = multierror.Append(result, fmt.Errorf("simulation.flows %d: must not be negative", s.Flows))
	}
	if s.Workers < 1 {
		result = multierror.Append(result, fmt.Errorf("simulation.workers %d: must be at least 1", s.Workers))
	}
	if s.CacheSize < 0 {
		result = multierror.Append(result, fmt.Errorf("simulation.cache_size %d: must not be negative", s.CacheSize))
	}

	if c.Server.Serve && c.Server.GRPCAddr == "" {
		result = multierror.Append(result, fmt.Errorf("server.grpc_addr: required when serving"))
	}

	return result.ErrorOrNil()
}

// Builder 按配置创建拓扑生成器
func (c *Config) Builder() *TopologyBuilder {
	return &TopologyBuilder{
		Width:  c.Topology.Width,
		Height: c.Topology.Height,
		Margin: c.Topology.Margin,
	}
}
