package config

import (
	"os"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads .env files in priority order: .env.local, .env.<APP_ENV>, .env.
// godotenv never overwrites variables that are already set, so the process
// environment wins and earlier files win over later ones. It returns the files
// actually loaded.
func LoadDotEnv() []string {
	return loadDotEnvFiles(dotEnvCandidates(os.Getenv("APP_ENV"))...)
}

func dotEnvCandidates(env string) []string {
	candidates := []string{".env.local"}
	if env != "" && env != "local" {
		candidates = append(candidates, ".env."+env)
	}
	return append(candidates, ".env")
}

func loadDotEnvFiles(candidates ...string) []string {
	var loaded []string
	for _, f := range candidates {
		if _, err := os.Stat(f); err == nil {
			loaded = append(loaded, f)
		}
	}
	if len(loaded) > 0 {
		_ = godotenv.Load(loaded...)
	}
	return loaded
}
