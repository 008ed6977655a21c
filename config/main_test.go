package config

import (
	"fmt"
	"os"
	"testing"
)

// loadedVars are cleared before the package tests so values exported by a
// developer shell cannot leak into Load
var loadedVars = []string{
	"DATABASE_URL", "AUTH0_DOMAIN", "AUTH0_AUDIENCE", "REDIS_URL",
	"AWS_SNS_TOPIC_ARN", "SIGNED_URL_TTL_SECONDS", "MAX_ATTACHMENT_BYTES",
	"PRESENCE_TTL_SECONDS", "CORS_ALLOWED_ORIGINS",
}

// TestMain refuses to run outside GO_ENV=test, since Load reads .env.<env>
// and ConnectDatabase dials whatever it is given
func TestMain(m *testing.M) {
	if env := os.Getenv("GO_ENV"); env != "test" {
		fmt.Fprintf(os.Stderr, "\nconfig tests require GO_ENV=test (got %q)\n"+
			"run them with: make test  or  GO_ENV=test go test ./config/...\n\n", env)
		os.Exit(1)
	}
	for _, key := range loadedVars {
		os.Unsetenv(key)
	}

	os.Exit(m.Run())
}
