package internal

import (
	"log"
	"os"
	"path/filepath"
	"strings"
)

// Well-known secret names. Each resolves from <mount_dir>/<name>/secret first
// and from the matching environment variable second.
const (
	SecretWebhook  = "gitea-webhook-secret"
	SecretAPIToken = "gitea-api-token"
	SecretModelKey = "model-api-key"
)

// SecretProvider resolves named secrets from a mounted file path, falling back
// to an environment variable of the same logical name. The file wins.
type SecretProvider struct {
	mountDir string
	logger   *log.Logger
}

func NewSecretProvider(mountDir string, logger *log.Logger) *SecretProvider {
	if logger == nil {
		logger = log.Default()
	}
	return &SecretProvider{mountDir: mountDir, logger: logger}
}

// Resolve returns the trimmed secret value and whether it was found.
// Absence is not an error; callers decide how to degrade.
func (p *SecretProvider) Resolve(name string) (string, bool) {
	path := filepath.Join(p.mountDir, name, "secret")
	data, err := os.ReadFile(path)
	if err == nil {
		value := strings.TrimSpace(string(data))
		if value != "" {
			p.logger.Printf("secret %s loaded from %s", name, path)
			return value, true
		}
	} else if !os.IsNotExist(err) {
		p.logger.Printf("secret %s unreadable at %s: %v", name, path, err)
	}

	if value := os.Getenv(EnvKey(name)); value != "" {
		return value, true
	}
	return "", false
}

// EnvKey maps a secret name to its environment variable form:
// "gitea-api-token" becomes "GITEA_API_TOKEN".
func EnvKey(name string) string {
	return strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}
