package config

import (
	"fmt"
	"os"
)

// WriteTemplate writes a starter profile document to path, refusing to
// clobber an existing file unless overwrite is set.
func WriteTemplate(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(defaultTemplate), 0o600)
}

const defaultTemplate = `default = "local"

[profile.local]
address = "localhost:7687"
versions = [3, 2, 1]
user_agent = "boltctl/0"
principal = "neo4j"
auth_env = "BOLTCTL_PASSWORD"

[profile.local.tls]
enabled = false
`
