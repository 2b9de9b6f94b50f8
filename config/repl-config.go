package config

type ReplConfig struct {
	Prompt string
}

func NewReplConfig() *ReplConfig {
	return &ReplConfig{
		Prompt: "rqlite> ",
	}
}
