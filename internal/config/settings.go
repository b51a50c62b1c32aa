package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/personifai/personifai/pkg/recognizer"
	"github.com/personifai/personifai/pkg/respond/synthesis"
)

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type RedisConfig struct {
	Addr string `mapstructure:"addr"`
	Pass string `mapstructure:"pass"`
	DB   int    `mapstructure:"db"`
}

type AudioConfig struct {
	ChunkDuration time.Duration `mapstructure:"chunk_duration"`
	Overlap       time.Duration `mapstructure:"overlap"`
	MaxBuffer     time.Duration `mapstructure:"max_buffer"`
	SampleRate    int           `mapstructure:"sample_rate"`
	QueueSize     int           `mapstructure:"queue_size"`
}

type SpeakerConfig struct {
	EmbedderURL string  `mapstructure:"embedder_url"`
	ProfilePath string  `mapstructure:"profile_path"`
	Threshold   float64 `mapstructure:"threshold"`
}

type TranscriptConfig struct {
	LogPath       string `mapstructure:"log_path"`
	FinalsPerTurn int    `mapstructure:"finals_per_turn"`
}

type GeneratorConfig struct {
	Provider      string   `mapstructure:"provider"`
	Model         string   `mapstructure:"model"`
	OllamaServers []string `mapstructure:"ollama_servers"`
}

type AssistantKeysObj struct {
	OpenAiApiKey     string `mapstructure:"open_ai_api_key"`
	ElevenLabsApiKey string `mapstructure:"eleven_labs_api_key"`
}

type Settings struct {
	Server        ServerConfig      `mapstructure:"server"`
	Redis         RedisConfig       `mapstructure:"redis"`
	Audio         AudioConfig       `mapstructure:"audio"`
	Speaker       SpeakerConfig     `mapstructure:"speaker"`
	Recognizer    recognizer.Config `mapstructure:"recognizer"`
	Synthesis     synthesis.Config  `mapstructure:"synthesis"`
	Transcript    TranscriptConfig  `mapstructure:"transcript"`
	Generator     GeneratorConfig   `mapstructure:"generator"`
	AssistantKeys AssistantKeysObj  `mapstructure:"assistantKeys"`
	Env           string            `mapstructure:"env"`
	Debug         bool              `mapstructure:"debug" default:"false"`
}

func Load() (*Settings, error) {
	// Load settings from a configuration file or environment variables
	viper.SetConfigName("config_" + genEnv())
	viper.AddConfigPath(".")
	viper.SetConfigType("yaml")

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var settings Settings
	if err := viper.Unmarshal(&settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &settings, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8088)
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("audio.chunk_duration", "3s")
	viper.SetDefault("audio.overlap", "1s")
	viper.SetDefault("audio.max_buffer", "30s")
	viper.SetDefault("audio.sample_rate", 16000)
	viper.SetDefault("audio.queue_size", 50)
	viper.SetDefault("speaker.profile_path", "data/voice_profile.json")
	viper.SetDefault("speaker.threshold", 0.7)
	viper.SetDefault("recognizer.sample_rate", 16000)
	viper.SetDefault("recognizer.format_turns", true)
	viper.SetDefault("transcript.log_path", "data/conversation_log.json")
	viper.SetDefault("transcript.finals_per_turn", 2)
	viper.SetDefault("generator.provider", "openai")
}

func genEnv() string {
	env := viper.GetString("ENV")
	if env == "" {
		return "dev"
	}
	return env
}
