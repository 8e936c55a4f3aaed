package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DBPath    string
	InboxDir  string
	OutputDir string
	MatchFile string

	SimproTokenDomain  string
	SimproAPIBase      string
	SimproClientID     string
	SimproClientSecret string
	SimproTimeoutMs    int
	SimproRateLimitRPS int
	ReadRetries        int
	ReadRetryDelayMs   int

	HeaderMatchThreshold int
	NameMatchThreshold   int

	GmailClientID     string
	GmailClientSecret string
	GmailRedirectURI  string
	GmailRefreshToken string

	IMAPHost     string
	IMAPPort     int
	IMAPSecure   bool
	IMAPUser     string
	IMAPPassword string
	IMAPMarkSeen bool

	MailListenerProvider    string
	MailListenerLabel       string
	MailListenerIntervalSec int
	MailListenerFetchMax    int
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DBPath:    getEnv("DB_PATH", filepath.Join(cwd, "data", "app.db")),
		InboxDir:  getEnv("INBOX_DIR", filepath.Join(cwd, "data", "inbox")),
		OutputDir: getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),
		MatchFile: getEnv("MATCH_FILE", filepath.Join(cwd, "confirmed_matches.json")),

		SimproTokenDomain:  getEnv("SIMPRO_DOMAIN", "https://specialisedlocksmiths.simprosuite.com"),
		SimproAPIBase:      getEnv("SIMPRO_API_BASE", "https://api-uk.simprocloud.com"),
		SimproClientID:     getEnv("SIMPRO_CLIENT_ID", ""),
		SimproClientSecret: getEnv("SIMPRO_CLIENT_SECRET", ""),
		SimproTimeoutMs:    getEnvInt("SIMPRO_TIMEOUT_MS", 10000),
		SimproRateLimitRPS: getEnvInt("SIMPRO_RATE_LIMIT_RPS", 5),
		ReadRetries:        getEnvInt("SIMPRO_READ_RETRIES", 3),
		ReadRetryDelayMs:   getEnvInt("SIMPRO_READ_RETRY_DELAY_MS", 2000),

		HeaderMatchThreshold: getEnvInt("HEADER_MATCH_THRESHOLD", 90),
		NameMatchThreshold:   getEnvInt("NAME_MATCH_THRESHOLD", 80),

		GmailClientID:     getEnv("GMAIL_CLIENT_ID", ""),
		GmailClientSecret: getEnv("GMAIL_CLIENT_SECRET", ""),
		GmailRedirectURI:  getEnv("GMAIL_REDIRECT_URI", "https://developers.google.com/oauthplayground"),
		GmailRefreshToken: getEnv("GMAIL_REFRESH_TOKEN", ""),

		IMAPHost:     getEnv("IMAP_HOST", ""),
		IMAPPort:     getEnvInt("IMAP_PORT", 993),
		IMAPSecure:   getEnvBool("IMAP_SECURE", true),
		IMAPUser:     getEnv("IMAP_USER", ""),
		IMAPPassword: getEnv("IMAP_PASSWORD", ""),
		IMAPMarkSeen: getEnvBool("IMAP_MARK_SEEN", false),

		MailListenerProvider:    getEnv("MAIL_LISTENER_PROVIDER", "imap"),
		MailListenerLabel:       getEnv("MAIL_LISTENER_LABEL", "INBOX"),
		MailListenerIntervalSec: getEnvInt("MAIL_LISTENER_INTERVAL_SEC", 60),
		MailListenerFetchMax:    getEnvInt("MAIL_LISTENER_FETCH_MAX", 20),
	}

	return cfg, nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	if value == "" {
		return fallback
	}
	if value == "1" || value == "true" || value == "yes" || value == "on" {
		return true
	}
	if value == "0" || value == "false" || value == "no" || value == "off" {
		return false
	}
	return fallback
}
