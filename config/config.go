package config

type AppConfig struct {
	ReplConfig *ReplConfig
}

func New() *AppConfig {
	return &AppConfig{
		ReplConfig: NewReplConfig(),
	}
}
