package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// configHeader opens every generated configuration file.
const configHeader = `# appshell Configuration File
#
# Every value below is the built-in default. Environment variables override
# the file: APPSHELL_<SECTION>_<KEY>, e.g. APPSHELL_LOGGING_LEVEL=DEBUG.
`

// section is one top-level block of the generated file.
type section struct {
	key     string
	comment string
	value   any
}

// InitConfig writes a default configuration file to the default location
// and returns its path. An existing file is only replaced when force is set.
func InitConfig(force bool) (string, error) {
	path := GetDefaultConfigPath()
	if err := InitConfigToPath(path, force); err != nil {
		return "", err
	}
	return path, nil
}

// InitConfigToPath writes a default configuration file to path, creating
// parent directories as needed.
func InitConfigToPath(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
		}
	}

	content, err := generateYAMLWithComments(GetDefaultConfig())
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// generateYAMLWithComments renders cfg section by section, each preceded by
// an explanatory comment.
func generateYAMLWithComments(cfg *Config) (string, error) {
	sections := []section{
		{
			key:     "logging",
			comment: "Log level (DEBUG, INFO, WARN, ERROR), format (text, json) and output\n(stdout, stderr or a file path).",
			value:   cfg.Logging,
		},
		{
			key: "storage",
			comment: "Sandbox backend: memory (volatile), badger (local, persistent) or s3.\n" +
				"quota_bytes is requested when the sandbox opens; 0 means unlimited.\n" +
				"The s3 section takes region, bucket, key_prefix, endpoint,\n" +
				"access_key_id, secret_access_key and max_retries.",
			value: cfg.Storage,
		},
		{
			key: "seed",
			comment: "Entries created on first open. Existing entries are never overwritten.\n" +
				"strict turns a path occupied by the other entry kind into an error.",
			value: cfg.Seed,
		},
		{
			key:     "shell",
			comment: "Shell stub layer. native is headless (no host) or desktop (opens URLs\nand folders with the OS default handler).",
			value:   cfg.Shell,
		},
		{
			key:     "limits",
			comment: "Dispatch throttling for asynchronous bridge operations (0 = unlimited).",
			value:   cfg.Limits,
		},
		{
			key:     "metrics",
			comment: "Prometheus metrics, served at http://<host>:<port>/metrics.",
			value:   cfg.Metrics,
		},
	}

	var b strings.Builder
	b.WriteString(configHeader)

	for _, s := range sections {
		out, err := yaml.Marshal(map[string]any{s.key: s.value})
		if err != nil {
			return "", fmt.Errorf("failed to marshal %s section: %w", s.key, err)
		}

		b.WriteString("\n")
		for _, line := range strings.Split(s.comment, "\n") {
			b.WriteString("# " + line + "\n")
		}
		b.Write(out)
	}

	return b.String(), nil
}
