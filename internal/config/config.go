package config // package config loads application configuration from environment variables

import (
	"log"           // log is used to report configuration errors and halt execution
	"os"            // os provides access to environment variables
	"path/filepath" // filepath joins the default state-file location
	"strconv"       // strconv converts strings to other types
	"time"          // time parses duration-valued variables
)

// Config holds the runtime configuration of the admin client.  Each field
// corresponds to an environment variable.  Only the API origin is required;
// everything else falls back to a sensible default so the CLI works with a
// single exported variable.
type Config struct {
	APIOrigin      string        // origin of the LocaTrova backend, e.g. "https://api.locatrova.it"
	RequestTimeout time.Duration // overall per-call timeout (retries included)
	MaxRetries     int           // attempts per call before giving up
	RetryBaseDelay time.Duration // base delay of the exponential backoff
	UploadTimeout  time.Duration // widened timeout for multipart uploads
	StateFile      string        // path of the persisted client state (tokens, wizard draft)
}

// Load reads configuration values from environment variables and returns a
// Config.  The required API origin is enforced by must() and a missing value
// causes the program to exit with a fatal log message.
func Load() Config {
	return Config{
		APIOrigin:      must("LOCATROVA_API_ORIGIN"),                        // backend origin (required)
		RequestTimeout: parseDur(getenv("LOCATROVA_TIMEOUT", "10s")),        // default 10 seconds per call
		MaxRetries:     atoi(getenv("LOCATROVA_MAX_RETRIES", "3")),          // default 3 attempts
		RetryBaseDelay: parseDur(getenv("LOCATROVA_RETRY_DELAY", "1s")),     // default 1 second backoff base
		UploadTimeout:  parseDur(getenv("LOCATROVA_UPLOAD_TIMEOUT", "60s")), // uploads get a minute
		StateFile:      getenv("LOCATROVA_STATE_FILE", defaultStateFile()),  // token/draft storage location
	}
}

// defaultStateFile places the client state under the user's config directory,
// falling back to the working directory when the home cannot be resolved.
func defaultStateFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".locatrova-state.json"
	}
	return filepath.Join(dir, "locatrova", "state.json")
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// getenv returns the value of an environment variable or a default when the
// variable is unset or empty.
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// atoi converts a string to an int, ignoring conversion errors.  Defaults are
// authored in-tree, so a parse failure can only come from an operator
// override and zero is an acceptable sentinel there.
func atoi(s string) int {
	i, _ := strconv.Atoi(s)
	return i
}

// parseDur converts a Go duration string ("10s", "1500ms") to a
// time.Duration, returning zero on failure.
func parseDur(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}
