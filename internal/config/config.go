// Package config resolves backend credentials and model settings from the
// environment and Viper configuration.
package config

import (
	"os"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/jsonmend/jsonmend/pkg/errors"
)

// Environment variable names recognized for backend credentials.
const (
	EnvOpenAIKey   = "OPENAI_API_KEY"
	EnvGeminiKey   = "GEMINI_API_KEY"
	EnvGoogleKey   = "GOOGLE_API_KEY"
	EnvOpenAIModel = "JSONMEND_OPENAI_MODEL"
	EnvGeminiModel = "JSONMEND_GEMINI_MODEL"
	EnvEmbedModel  = "JSONMEND_EMBEDDING_MODEL"
)

var loadEnvOnce sync.Once

// LoadEnv loads a .env file into the process environment if one exists.
// Missing files are not an error. Safe to call more than once.
func LoadEnv() {
	loadEnvOnce.Do(func() {
		_ = godotenv.Load()
	})
}

// GetString is a helper to get string values from Viper.
// It checks both OS environment variables and Viper configuration.
func GetString(key string) string {
	osValue := os.Getenv(key)
	viperValue := viper.GetString(key)

	// If Viper doesn't have it but OS does, return OS value
	if viperValue == "" && osValue != "" {
		return osValue
	}
	return viperValue
}

// OpenAIKey returns the configured OpenAI API key, or ErrAPIKeyRequired.
func OpenAIKey() (string, error) {
	LoadEnv()
	if key := GetString(EnvOpenAIKey); key != "" {
		return key, nil
	}
	return "", errors.NewConfigError("openai", "OPENAI_API_KEY not set", errors.ErrAPIKeyRequired)
}

// GeminiKey returns the configured Gemini API key, checking both the Gemini
// and Google variable spellings, or ErrAPIKeyRequired.
func GeminiKey() (string, error) {
	LoadEnv()
	if key := GetString(EnvGeminiKey); key != "" {
		return key, nil
	}
	if key := GetString(EnvGoogleKey); key != "" {
		return key, nil
	}
	return "", errors.NewConfigError("gemini", "GEMINI_API_KEY not set", errors.ErrAPIKeyRequired)
}

// HasOpenAIKey reports whether an OpenAI key is configured without
// validating it.
func HasOpenAIKey() bool {
	LoadEnv()
	return GetString(EnvOpenAIKey) != ""
}

// HasGeminiKey reports whether a Gemini key is configured without
// validating it.
func HasGeminiKey() bool {
	LoadEnv()
	return GetString(EnvGeminiKey) != "" || GetString(EnvGoogleKey) != ""
}

// OpenAIModel returns the configured OpenAI chat model, or empty to use the
// responder default.
func OpenAIModel() string {
	return GetString(EnvOpenAIModel)
}

// GeminiModel returns the configured Gemini generative model, or empty to
// use the responder default.
func GeminiModel() string {
	return GetString(EnvGeminiModel)
}

// EmbeddingModel returns the configured embedding model, or empty to use
// the embedder default.
func EmbeddingModel() string {
	return GetString(EnvEmbedModel)
}
