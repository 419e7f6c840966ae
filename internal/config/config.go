package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	StorageSQLite   = "sqlite"
	StorageSupabase = "supabase"

	ProviderGateway = "gateway"
	ProviderGemini  = "gemini"
)

// Config is built once at startup and handed to every constructor that needs it.
type Config struct {
	HTTPPort string
	LogLevel string

	StorageBackend     string
	DatabaseURL        string
	SupabaseURL        string
	SupabaseServiceKey string

	CompletionProvider    string
	CompletionURL         string
	CompletionAPIKey      string
	GeminiAPIKey          string
	CompletionModel       string
	CompletionTemperature float32
	CompletionMaxTokens   int
	CompletionBreaker     bool

	KnowledgeContextLimit int

	JWTSecret string
}

// Requirement selects the groups of settings a command depends on.
type Requirement int

const (
	NeedStorage Requirement = 1 << iota
	NeedCompletion
	NeedAuth

	NeedAll = NeedStorage | NeedCompletion | NeedAuth
)

// Load reads a .env file when present and then the process environment.
// Missing required settings are reported together in one error.
func Load() (*Config, bool, error) {
	return LoadFor(NeedAll)
}

// LoadFor is Load restricted to the settings in need.
func LoadFor(need Requirement) (*Config, bool, error) {
	envFileLoaded := godotenv.Load() == nil

	cfg := &Config{
		HTTPPort: getEnv("HTTP_PORT", "8080"),
		LogLevel: strings.ToUpper(getEnv("LOG_LEVEL", "INFO")),

		StorageBackend:     strings.ToLower(getEnv("STORAGE_BACKEND", StorageSQLite)),
		DatabaseURL:        getEnv("DATABASE_URL", "finbot.db"),
		SupabaseURL:        getEnv("SUPABASE_URL", ""),
		SupabaseServiceKey: getEnv("SUPABASE_SERVICE_ROLE_KEY", ""),

		CompletionProvider:    strings.ToLower(getEnv("COMPLETION_PROVIDER", ProviderGateway)),
		CompletionURL:         getEnv("COMPLETION_URL", "https://ai.gateway.lovable.dev/v1/chat/completions"),
		CompletionAPIKey:      getEnv("COMPLETION_API_KEY", ""),
		GeminiAPIKey:          getEnv("GEMINI_API_KEY", ""),
		CompletionModel:       getEnv("COMPLETION_MODEL", "google/gemini-2.5-flash"),
		CompletionTemperature: getEnvAsFloat32("COMPLETION_TEMPERATURE", 0.7),
		CompletionMaxTokens:   getEnvAsInt("COMPLETION_MAX_TOKENS", 1000),
		CompletionBreaker:     getEnvAsBool("COMPLETION_BREAKER", true),

		KnowledgeContextLimit: getEnvAsInt("KNOWLEDGE_CONTEXT_LIMIT", 20),

		JWTSecret: getEnv("JWT_SECRET", ""),
	}

	return cfg, envFileLoaded, cfg.ValidateFor(need)
}

// Validate checks every setting that depends on the selected backends.
func (c *Config) Validate() error {
	return c.ValidateFor(NeedAll)
}

func (c *Config) ValidateFor(need Requirement) error {
	var missing []string

	if need&NeedStorage != 0 {
		m, err := c.missingStorage()
		if err != nil {
			return err
		}
		missing = append(missing, m...)
	}
	if need&NeedCompletion != 0 {
		m, err := c.missingCompletion()
		if err != nil {
			return err
		}
		missing = append(missing, m...)
	}
	if need&NeedAuth != 0 && c.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

func (c *Config) missingStorage() ([]string, error) {
	var missing []string
	switch c.StorageBackend {
	case StorageSQLite:
		if c.DatabaseURL == "" {
			missing = append(missing, "DATABASE_URL")
		}
	case StorageSupabase:
		if c.SupabaseURL == "" {
			missing = append(missing, "SUPABASE_URL")
		}
		if c.SupabaseServiceKey == "" {
			missing = append(missing, "SUPABASE_SERVICE_ROLE_KEY")
		}
	default:
		return nil, fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}
	return missing, nil
}

func (c *Config) missingCompletion() ([]string, error) {
	var missing []string
	switch c.CompletionProvider {
	case ProviderGateway:
		if c.CompletionAPIKey == "" {
			missing = append(missing, "COMPLETION_API_KEY")
		}
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			missing = append(missing, "GEMINI_API_KEY")
		}
	default:
		return nil, fmt.Errorf("unknown COMPLETION_PROVIDER %q", c.CompletionProvider)
	}
	return missing, nil
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 32); err == nil {
		return float32(value)
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}
