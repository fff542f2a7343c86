package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	internalconfig "github.com/lingoroom/captiond/internal/config"
)

type envConfig struct {
	Env                        string   `env:"ENV" envDefault:"production"`
	ListenAddr                 string   `env:"LISTEN_ADDR" envDefault:":8080"`
	DatabaseURL                string   `env:"DATABASE_URL,required"`
	RedisURL                   string   `env:"REDIS_URL,required"`
	AuthVerifyURL              string   `env:"AUTH_VERIFY_URL"`
	GoogleCloudProjectID       string   `env:"GOOGLE_CLOUD_PROJECT_ID,required"`
	GoogleCloudCredentialsJSON string   `env:"GOOGLE_CLOUD_CREDENTIALS_JSON,required"`
	GoogleCloudSpeechLocation  string   `env:"GOOGLE_CLOUD_SPEECH_LOCATION" envDefault:"asia-southeast1"`
	GoogleCloudSpeechModel     string   `env:"GOOGLE_CLOUD_SPEECH_MODEL" envDefault:"chirp_3"`
	RecognizerLanguages        []string `env:"RECOGNIZER_LANGUAGES" envDefault:"vi-VN,en-US,ja-JP,cmn-Hans-CN"`
	DefaultLanguage            string   `env:"DEFAULT_LANGUAGE" envDefault:"en"`
	TranslationAPIURL          string   `env:"TRANSLATION_API_URL,required"`
	TranslationAPIKey          string   `env:"TRANSLATION_API_KEY"`
	TranslationTierModels      []string `env:"TRANSLATION_TIER_MODELS" envDefault:"fast-lite,fast,quality"`
	DispatchConcurrency        int      `env:"DISPATCH_CONCURRENCY" envDefault:"4"`
	PhraseCacheWarmLimit       int      `env:"PHRASE_CACHE_WARM_LIMIT" envDefault:"5000"`
}

func Load() (*internalconfig.Config, error) {
	var raw envConfig
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("environment variables are invalid or missing: %w", err)
	}

	cfg := &internalconfig.Config{
		Env:                        raw.Env,
		ListenAddr:                 raw.ListenAddr,
		DatabaseURL:                raw.DatabaseURL,
		RedisURL:                   raw.RedisURL,
		AuthVerifyURL:              raw.AuthVerifyURL,
		GoogleCloudProjectID:       raw.GoogleCloudProjectID,
		GoogleCloudCredentialsJSON: raw.GoogleCloudCredentialsJSON,
		GoogleCloudSpeechLocation:  raw.GoogleCloudSpeechLocation,
		GoogleCloudSpeechModel:     raw.GoogleCloudSpeechModel,
		RecognizerLanguages:        raw.RecognizerLanguages,
		DefaultLanguage:            raw.DefaultLanguage,
		TranslationAPIURL:          raw.TranslationAPIURL,
		TranslationAPIKey:          raw.TranslationAPIKey,
		TranslationTierModels:      raw.TranslationTierModels,
		DispatchConcurrency:        raw.DispatchConcurrency,
		PhraseCacheWarmLimit:       raw.PhraseCacheWarmLimit,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
