package bootstrap

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	ServerAddr string
	LogLevel   string

	DatabaseDSN string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	QdrantHost   string
	QdrantPort   int
	QdrantAPIKey string

	GeminiAPIKey     string
	GeminiModel      string
	GeminiEmbedModel string

	OpenAIAPIKey       string
	RealtimeModel      string
	RealtimeVoice      string
	TranscriptionModel string

	PromptPath  string
	JobsCSVPath string

	RTCICEServers []ICEServerConfig
	RTCPortMin    int
	RTCPortMax    int
}

type ICEServerConfig struct {
	URLs       []string
	Username   string
	Credential string
}

func LoadConfig() *Config {
	return &Config{
		ServerAddr: getEnv("SERVER_ADDR", ":8080"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),

		DatabaseDSN: getEnv("DATABASE_DSN", ""),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		QdrantHost:   getEnv("QDRANT_HOST", "localhost"),
		QdrantPort:   getEnvInt("QDRANT_PORT", 6334),
		QdrantAPIKey: getEnv("QDRANT_API_KEY", ""),

		GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),
		GeminiModel:      getEnv("GEMINI_MODEL", ""),
		GeminiEmbedModel: getEnv("GEMINI_EMBED_MODEL", ""),

		OpenAIAPIKey:       getEnv("OPENAI_API_KEY", ""),
		RealtimeModel:      getEnv("REALTIME_MODEL", ""),
		RealtimeVoice:      getEnv("REALTIME_VOICE", ""),
		TranscriptionModel: getEnv("TRANSCRIPTION_MODEL", ""),

		PromptPath:  getEnv("PROMPT_PATH", "./prompts/career_assistant.xml"),
		JobsCSVPath: getEnv("JOBS_CSV_PATH", "./data/job_offers.csv"),

		RTCICEServers: parseICEServers(getEnv("RTC_ICE_SERVERS", "stun:stun.l.google.com:19302")),
		RTCPortMin:    getEnvInt("RTC_PORT_MIN", 10000),
		RTCPortMax:    getEnvInt("RTC_PORT_MAX", 20000),
	}
}

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

func parseICEServers(envValue string) []ICEServerConfig {
	var servers []ICEServerConfig
	for _, url := range strings.Split(envValue, ",") {
		url = strings.TrimSpace(url)
		if url != "" {
			servers = append(servers, ICEServerConfig{URLs: []string{url}})
		}
	}

	if len(servers) == 0 {
		return []ICEServerConfig{{URLs: []string{"stun:stun.l.google.com:19302"}}}
	}

	return servers
}
