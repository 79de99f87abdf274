package configs

import (
	"flag"
	"os"

	"github.com/chronicler-app/chronicler/internal/infrastructure/env"
)

// DetermineConfigPath resolves the config file from the --config flag,
// the CHRONICLER_CONFIG env var, or a set of conventional locations.
// An empty result means defaults plus env overrides.
func DetermineConfigPath() string {
	var configPath string

	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	if configPath == "" {
		configPath = env.GetString("CHRONICLER_CONFIG", "")
	}

	if configPath == "" {
		candidates := []string{
			"./config.yaml",
			"./config.yml",
			"/etc/chronicler/config.yaml",
			"/app/config.yaml", // common in Docker
		}

		for _, p := range candidates {
			if _, err := os.Stat(p); err == nil {
				configPath = p
				break
			}
		}
	}

	return configPath
}
