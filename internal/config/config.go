package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server   ServerConfig
	Auth     AuthConfig
	AI       AIConfig
	Engine   EngineConfig
	Callback CallbackConfig
	Store    StoreConfig
	Events   EventsConfig
	LogLevel string
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	engine, err := loadEngineConfig()
	if err != nil {
		return nil, err
	}

	callback, err := loadCallbackConfig()
	if err != nil {
		return nil, err
	}

	store := loadStoreConfig()

	monitor, err := parseBoolEnv("MONITOR_ENABLED", true)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: server,
		Auth: AuthConfig{
			APIKey: strings.TrimSpace(os.Getenv("HONEYPOT_API_KEY")),
		},
		AI:       ai,
		Engine:   engine,
		Callback: callback,
		Store:    store,
		Events: EventsConfig{
			NatsURL:        strings.TrimSpace(os.Getenv("NATS_URL")),
			NatsToken:      strings.TrimSpace(os.Getenv("NATS_TOKEN")),
			SubjectPrefix:  getEnvOrDefault("NATS_SUBJECT_PREFIX", "honeypot"),
			MonitorEnabled: monitor,
		},
		LogLevel: strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 检查跨字段约束。
func (c *Config) Validate() error {
	var errs []error

	e := c.Engine
	if e.ScamThreshold <= 0 || e.ScamThreshold > 1 {
		errs = append(errs, fmt.Errorf("SCAM_THRESHOLD must be in (0,1], got %v", e.ScamThreshold))
	}
	if e.MaxTurns < 1 {
		errs = append(errs, fmt.Errorf("MAX_TURNS must be positive, got %d", e.MaxTurns))
	}
	if e.StallAfterTurns < 1 || e.StallAfterTurns >= e.MaxTurns {
		errs = append(errs, fmt.Errorf("STALL_AFTER_TURNS must be in [1,MAX_TURNS), got %d", e.StallAfterTurns))
	}
	if e.PlateauTurns < 1 {
		errs = append(errs, fmt.Errorf("PLATEAU_TURNS must be positive, got %d", e.PlateauTurns))
	}
	if e.MinFindingKinds < 1 || e.MinFindingKinds > 4 {
		errs = append(errs, fmt.Errorf("MIN_FINDING_KINDS must be in [1,4], got %d", e.MinFindingKinds))
	}
	if e.MaxDuration <= 0 {
		errs = append(errs, fmt.Errorf("MAX_ENGAGEMENT must be positive, got %s", e.MaxDuration))
	}
	if e.SaveRetries < 0 {
		errs = append(errs, fmt.Errorf("SAVE_RETRIES must not be negative, got %d", e.SaveRetries))
	}
	switch e.ClosedPolicy {
	case ClosedPolicyReject, ClosedPolicyReopen:
	default:
		errs = append(errs, fmt.Errorf("unknown CLOSED_SESSION_POLICY %q", e.ClosedPolicy))
	}

	switch c.Store.Backend {
	case "memory":
	case "sqlite":
		if c.Store.SQLitePath == "" {
			errs = append(errs, errors.New("SQLITE_PATH is required for the sqlite store"))
		}
	case "postgres":
		if c.Store.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_BACKEND %q", c.Store.Backend))
	}

	return errors.Join(errs...)
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr           string
	AllowedOrigins []string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	origins := splitList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "*"))

	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return ServerConfig{Addr: port, AllowedOrigins: origins}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port, AllowedOrigins: origins}, nil
}

// AuthConfig 描述入站请求鉴权。为空时不校验 x-api-key。
type AuthConfig struct {
	APIKey string
}

// AIConfig 描述大模型相关配置。
type AIConfig struct {
	APIKey         string
	AccessKey      string
	SecretKey      string
	Model          string
	BaseURL        string
	Region         string
	Temperature    *float64
	TopP           *float64
	MaxTokens      *int
	ReplyTimeout   time.Duration
	HistoryLimit   int
	DefaultPersona string
}

// Enabled 表示是否提供了必需的密钥。
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel 使用配置创建一个模型实例。
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("Ark 凭证或模型配置缺失，至少提供 ARK_API_KEY + ARK_MODEL 或 AK/SK 组合")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("ARK_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	timeout, err := parseDurationEnv("AI_REPLY_TIMEOUT", 8*time.Second)
	if err != nil {
		return AIConfig{}, err
	}

	historyLimit := 10
	if override, err := parseOptionalIntEnv("AI_HISTORY_LIMIT"); err != nil {
		return AIConfig{}, err
	} else if override != nil {
		if *override < 1 {
			historyLimit = 1
		} else {
			historyLimit = *override
		}
	}

	modelName := strings.TrimSpace(os.Getenv("ARK_MODEL"))
	if modelName == "" {
		modelName = strings.TrimSpace(os.Getenv("Model"))
	}

	return AIConfig{
		APIKey:         strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:      strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:      strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:          modelName,
		BaseURL:        getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:         getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature:    temperature,
		TopP:           topP,
		MaxTokens:      maxTokens,
		ReplyTimeout:   timeout,
		HistoryLimit:   historyLimit,
		DefaultPersona: getEnvOrDefault("DEFAULT_PERSONA", "retired-teacher"),
	}, nil
}

// ClosedPolicy 决定 CLOSED 会话再次收到消息时的处理方式。
type ClosedPolicy string

const (
	ClosedPolicyReject ClosedPolicy = "reject"
	ClosedPolicyReopen ClosedPolicy = "reopen"
)

// EngineConfig 描述会话状态机阈值。
type EngineConfig struct {
	ScamThreshold   float64
	StallAfterTurns int
	PlateauTurns    int
	MinFindingKinds int
	MaxTurns        int
	MaxDuration     time.Duration
	ClosedPolicy    ClosedPolicy
	SaveRetries     int
}

func loadEngineConfig() (EngineConfig, error) {
	threshold, err := parseFloatEnv("SCAM_THRESHOLD", 0.3)
	if err != nil {
		return EngineConfig{}, err
	}
	stallAfter, err := parseIntEnv("STALL_AFTER_TURNS", 4)
	if err != nil {
		return EngineConfig{}, err
	}
	plateau, err := parseIntEnv("PLATEAU_TURNS", 3)
	if err != nil {
		return EngineConfig{}, err
	}
	minKinds, err := parseIntEnv("MIN_FINDING_KINDS", 2)
	if err != nil {
		return EngineConfig{}, err
	}
	maxTurns, err := parseIntEnv("MAX_TURNS", 10)
	if err != nil {
		return EngineConfig{}, err
	}
	maxDuration, err := parseDurationEnv("MAX_ENGAGEMENT", 30*time.Minute)
	if err != nil {
		return EngineConfig{}, err
	}
	retries, err := parseIntEnv("SAVE_RETRIES", 3)
	if err != nil {
		return EngineConfig{}, err
	}

	return EngineConfig{
		ScamThreshold:   threshold,
		StallAfterTurns: stallAfter,
		PlateauTurns:    plateau,
		MinFindingKinds: minKinds,
		MaxTurns:        maxTurns,
		MaxDuration:     maxDuration,
		ClosedPolicy:    ClosedPolicy(strings.ToLower(getEnvOrDefault("CLOSED_SESSION_POLICY", string(ClosedPolicyReject)))),
		SaveRetries:     retries,
	}, nil
}

// CallbackConfig 描述评估回调端点。URL 为空时不上报。
type CallbackConfig struct {
	URL         string
	APIKey      string
	Timeout     time.Duration
	MaxAttempts int
}

func loadCallbackConfig() (CallbackConfig, error) {
	timeout, err := parseDurationEnv("CALLBACK_TIMEOUT", 10*time.Second)
	if err != nil {
		return CallbackConfig{}, err
	}
	attempts, err := parseIntEnv("CALLBACK_MAX_ATTEMPTS", 2)
	if err != nil {
		return CallbackConfig{}, err
	}
	if attempts < 1 {
		attempts = 1
	}
	return CallbackConfig{
		URL:         strings.TrimSpace(os.Getenv("CALLBACK_URL")),
		APIKey:      strings.TrimSpace(os.Getenv("CALLBACK_API_KEY")),
		Timeout:     timeout,
		MaxAttempts: attempts,
	}, nil
}

// StoreConfig 描述会话存储后端。
type StoreConfig struct {
	Backend     string
	SQLitePath  string
	DatabaseURL string
}

func loadStoreConfig() StoreConfig {
	return StoreConfig{
		Backend:     strings.ToLower(getEnvOrDefault("STORE_BACKEND", "memory")),
		SQLitePath:  getEnvOrDefault("SQLITE_PATH", "data/honeypot.db"),
		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
	}
}

// EventsConfig 描述事件发布。NatsURL 为空时只在进程内广播。
type EventsConfig struct {
	NatsURL        string
	NatsToken      string
	SubjectPrefix  string
	MonitorEnabled bool
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseFloatEnv(key string, defaultValue float64) (float64, error) {
	val, err := parseOptionalFloatEnv(key)
	if err != nil || val == nil {
		return defaultValue, err
	}
	return *val, nil
}

func parseIntEnv(key string, defaultValue int) (int, error) {
	val, err := parseOptionalIntEnv(key)
	if err != nil || val == nil {
		return defaultValue, err
	}
	return *val, nil
}

// parseDurationEnv 接受 Go 时长字符串（如 "30m"）或整数秒。
func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}
