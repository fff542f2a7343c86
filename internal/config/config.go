package config

import (
	"fmt"
)

const maxRecognizerCandidateLanguages = 4

type Config struct {
	Env                        string
	ListenAddr                 string
	DatabaseURL                string
	RedisURL                   string
	AuthVerifyURL              string
	GoogleCloudProjectID       string
	GoogleCloudCredentialsJSON string
	GoogleCloudSpeechLocation  string
	GoogleCloudSpeechModel     string
	RecognizerLanguages        []string
	DefaultLanguage            string
	TranslationAPIURL          string
	TranslationAPIKey          string
	TranslationTierModels      []string
	DispatchConcurrency        int
	PhraseCacheWarmLimit       int
}

func (c *Config) Validate() error {
	for _, req := range c.requiredFieldChecks() {
		if req.value == "" {
			return fmt.Errorf("%s is required", req.name)
		}
	}
	if len(c.RecognizerLanguages) == 0 {
		return fmt.Errorf("RECOGNIZER_LANGUAGES must list at least one language")
	}
	if len(c.RecognizerLanguages) > maxRecognizerCandidateLanguages {
		return fmt.Errorf("RECOGNIZER_LANGUAGES accepts at most %d languages, got %d", maxRecognizerCandidateLanguages, len(c.RecognizerLanguages))
	}
	if len(c.TranslationTierModels) == 0 {
		return fmt.Errorf("TRANSLATION_TIER_MODELS must list at least one model")
	}
	if c.DispatchConcurrency <= 0 {
		return fmt.Errorf("DISPATCH_CONCURRENCY must be positive, got %d", c.DispatchConcurrency)
	}
	if c.PhraseCacheWarmLimit < 0 {
		return fmt.Errorf("PHRASE_CACHE_WARM_LIMIT must not be negative, got %d", c.PhraseCacheWarmLimit)
	}
	return nil
}

type requiredEnvField struct {
	name  string
	value string
}

func (c *Config) requiredFieldChecks() []requiredEnvField {
	return []requiredEnvField{
		{name: "LISTEN_ADDR", value: c.ListenAddr},
		{name: "DATABASE_URL", value: c.DatabaseURL},
		{name: "REDIS_URL", value: c.RedisURL},
		{name: "GOOGLE_CLOUD_PROJECT_ID", value: c.GoogleCloudProjectID},
		{name: "GOOGLE_CLOUD_CREDENTIALS_JSON", value: c.GoogleCloudCredentialsJSON},
		{name: "DEFAULT_LANGUAGE", value: c.DefaultLanguage},
		{name: "TRANSLATION_API_URL", value: c.TranslationAPIURL},
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
