package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	BackendSQLite = "sqlite"
	BackendSheets = "sheets"
	BackendMemory = "memory"
)

type Config struct {
	TelegramToken string

	StoreBackend      string
	SQLitePath        string
	SheetID           string
	GoogleCredentials []byte
	StoreTimeout      time.Duration

	LogLevel  string
	LogToFile bool

	WebhookURL     string
	HTTPAddr       string
	AllowedChatIDs map[int64]bool

	// ReminderInterval of zero disables upcoming-event reminders.
	ReminderInterval time.Duration
}

// Load reads the process environment. Callers load .env beforehand.
func Load() (*Config, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		TelegramToken: getenv("TELEGRAM_BOT_TOKEN"),
		StoreBackend:  strings.ToLower(valueOr(getenv("STORE_BACKEND"), BackendSQLite)),
		SQLitePath:    valueOr(getenv("SQLITE_PATH"), "eventledger.db"),
		SheetID:       getenv("GOOGLE_SHEET_ID"),
		LogLevel:      valueOr(getenv("LOG_LEVEL"), "INFO"),
		WebhookURL:    getenv("WEBHOOK_URL"),
		HTTPAddr:      valueOr(getenv("HTTP_ADDR"), ":8080"),
	}

	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is not set")
	}

	timeout, err := time.ParseDuration(valueOr(getenv("STORE_TIMEOUT"), "10s"))
	if err != nil || timeout <= 0 {
		return nil, fmt.Errorf("invalid STORE_TIMEOUT %q", getenv("STORE_TIMEOUT"))
	}
	cfg.StoreTimeout = timeout

	if raw := getenv("LOG_TO_FILE"); raw != "" {
		cfg.LogToFile, err = strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid LOG_TO_FILE %q: %w", raw, err)
		}
	}

	switch cfg.StoreBackend {
	case BackendSQLite, BackendMemory:
	case BackendSheets:
		if cfg.SheetID == "" {
			return nil, fmt.Errorf("GOOGLE_SHEET_ID is required for the sheets backend")
		}
		encoded := getenv("GOOGLE_CREDENTIALS_BASE64")
		if encoded == "" {
			return nil, fmt.Errorf("GOOGLE_CREDENTIALS_BASE64 is required for the sheets backend")
		}
		cfg.GoogleCredentials, err = base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("decode GOOGLE_CREDENTIALS_BASE64: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}

	cfg.AllowedChatIDs, err = parseChatIDs(getenv("ALLOWED_CHAT_IDS"))
	if err != nil {
		return nil, err
	}

	if raw := getenv("REMINDER_INTERVAL"); raw != "" {
		cfg.ReminderInterval, err = time.ParseDuration(raw)
		if err != nil || cfg.ReminderInterval < 0 {
			return nil, fmt.Errorf("invalid REMINDER_INTERVAL %q", raw)
		}
	}

	return cfg, nil
}

// ChatAllowed reports whether chatID may talk to the bot. An empty
// allow-list lets everyone in.
func (c *Config) ChatAllowed(chatID int64) bool {
	if len(c.AllowedChatIDs) == 0 {
		return true
	}
	return c.AllowedChatIDs[chatID]
}

// ChatIDs returns the allow-list in ascending order.
func (c *Config) ChatIDs() []int64 {
	ids := make([]int64, 0, len(c.AllowedChatIDs))
	for id := range c.AllowedChatIDs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func parseChatIDs(raw string) (map[int64]bool, error) {
	ids := make(map[int64]bool)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid chat id %q in ALLOWED_CHAT_IDS", part)
		}
		ids[id] = true
	}
	return ids, nil
}

func valueOr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
