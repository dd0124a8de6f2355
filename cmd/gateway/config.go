package main

import (
	"time"

	"github.com/spf13/viper"
)

// Config is the full configuration surface, bound from gateway.yaml.
type Config struct {
	ListenAddr    string `mapstructure:"listen-addr"`
	MaxConcurrent int    `mapstructure:"max-concurrent"`
	TemplatesDir  string `mapstructure:"templates-dir"`
	ArchiveDSN    string `mapstructure:"archive-dsn"`

	LLM        LLMConfig        `mapstructure:"llm"`
	Voice      VoiceConfig      `mapstructure:"voice"`
	Rooms      RoomsConfig      `mapstructure:"rooms"`
	Interview  InterviewConfig  `mapstructure:"interview"`
	Evaluation EvaluationConfig `mapstructure:"evaluation"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

type LLMConfig struct {
	Engine          string        `mapstructure:"engine"`
	Model           string        `mapstructure:"model"`
	MaxTokens       int           `mapstructure:"max-tokens"`
	TimeoutClassify time.Duration `mapstructure:"timeout-classify"`
	TimeoutGenerate time.Duration `mapstructure:"timeout-generate"`
	HTTPTimeout     time.Duration `mapstructure:"http-timeout"`
	PoolSize        int           `mapstructure:"pool-size"`

	OpenAI *OpenAIConfig `mapstructure:"openai"`
	Gemini *GeminiConfig `mapstructure:"gemini"`
	Ollama *OllamaConfig `mapstructure:"ollama"`
}

type OpenAIConfig struct {
	APIKeyFile string `mapstructure:"api-key-file"`
	BaseURL    string `mapstructure:"base-url"`
}

type GeminiConfig struct {
	APIKeyFile string `mapstructure:"api-key-file"`
}

type OllamaConfig struct {
	URL   string `mapstructure:"url"`
	Model string `mapstructure:"model"`
}

type VoiceConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Engine      string        `mapstructure:"engine"`
	PiperURL    string        `mapstructure:"piper-url"`
	SpeechURL   string        `mapstructure:"speech-url"`
	HTTPTimeout time.Duration `mapstructure:"http-timeout"`

	ElevenLabs *ElevenLabsConfig `mapstructure:"elevenlabs"`
}

type ElevenLabsConfig struct {
	APIKeyFile string `mapstructure:"api-key-file"`
	VoiceID    string `mapstructure:"voice-id"`
	ModelID    string `mapstructure:"model-id"`
}

type RoomsConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	ProviderURL string `mapstructure:"provider-url"`
	APIKeyFile  string `mapstructure:"api-key-file"`
}

type InterviewConfig struct {
	MaxFollowUps     int     `mapstructure:"max-followups"`
	MinAnswerWords   int     `mapstructure:"min-answer-words"`
	ProbeProbability float64 `mapstructure:"probe-probability"`
	HistoryWindow    int     `mapstructure:"history-window"`
}

type EvaluationConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type LoggingConfig struct {
	JSON  bool `mapstructure:"json"`
	Debug bool `mapstructure:"debug"`
}

func setDefaults() {
	viper.SetDefault("listen-addr", ":8000")
	viper.SetDefault("max-concurrent", 100)
	viper.SetDefault("templates-dir", "./templates")

	viper.SetDefault("llm.engine", "openai")
	viper.SetDefault("llm.max-tokens", 220)
	viper.SetDefault("llm.timeout-classify", 6*time.Second)
	viper.SetDefault("llm.timeout-generate", 8*time.Second)
	viper.SetDefault("llm.http-timeout", 60*time.Second)
	viper.SetDefault("llm.pool-size", 10)
	viper.SetDefault("llm.ollama.url", "http://localhost:11434")
	viper.SetDefault("llm.ollama.model", "llama3.1:8b")

	viper.SetDefault("voice.enabled", true)
	viper.SetDefault("voice.engine", "piper")
	viper.SetDefault("voice.piper-url", "http://localhost:5000")
	viper.SetDefault("voice.http-timeout", 30*time.Second)

	viper.SetDefault("interview.max-followups", 2)
	viper.SetDefault("interview.min-answer-words", 15)
	viper.SetDefault("interview.probe-probability", 0.3)
	viper.SetDefault("interview.history-window", 5)

	viper.SetDefault("evaluation.enabled", true)
	viper.SetDefault("evaluation.timeout", 20*time.Second)
}

func getConfig() (*Config, error) {
	var config *Config
	if err := viper.Unmarshal(&config); err != nil {
		return config, err
	}
	return config, nil
}
