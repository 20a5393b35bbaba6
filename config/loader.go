package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// envPrefix namespaces this tool's environment variables. A double
// underscore separates nesting levels, so key names may themselves contain
// single underscores: TABREPORT_TABLEAU__TOKEN_SECRET -> tableau.token_secret.
const envPrefix = "TABREPORT_"

// defaultConfigNames are searched in the working directory when no explicit
// path is given.
var defaultConfigNames = []string{"tabreport.yaml", "tabreport.yml"}

// Load merges configuration from, lowest to highest precedence: built-in
// defaults, the YAML config file, TABREPORT_ environment variables, and
// explicitly set CLI flags. A .env file in the working directory is loaded
// into the environment first, if present.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	// Secrets live in .env during local runs. Missing file is fine.
	_ = godotenv.Load()

	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]any{
		"tableau.api_version":    "3.19",
		"output.dir":             ".",
		"output.filename_prefix": "report",
		"mail.port":              587,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("config: defaults: %w", err)
	}

	path := findConfigFile(cfgFile)
	if path == "" && cfgFile != "" {
		return nil, fmt.Errorf("config: file %s not found", cfgFile)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("config: env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("config: flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	return &cfg, nil
}

// findConfigFile resolves the config path: explicit path if given, else the
// first default name present in the working directory.
func findConfigFile(explicit string) string {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit
		}
		return ""
	}
	for _, name := range defaultConfigNames {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}
