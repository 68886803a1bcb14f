package config

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(values map[string]string) func(string) string {
	return func(k string) string { return values[k] }
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(env(map[string]string{"TELEGRAM_BOT_TOKEN": "tok"}))
	require.NoError(t, err)

	assert.Equal(t, BackendSQLite, cfg.StoreBackend)
	assert.Equal(t, "eventledger.db", cfg.SQLitePath)
	assert.Equal(t, 10*time.Second, cfg.StoreTimeout)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.True(t, cfg.ChatAllowed(42))
}

func TestLoadRequiresToken(t *testing.T) {
	_, err := load(env(nil))
	assert.Error(t, err)
}

func TestLoadSheetsBackend(t *testing.T) {
	creds := base64.StdEncoding.EncodeToString([]byte(`{"type":"service_account"}`))
	cfg, err := load(env(map[string]string{
		"TELEGRAM_BOT_TOKEN":        "tok",
		"STORE_BACKEND":             "Sheets",
		"GOOGLE_SHEET_ID":           "sheet",
		"GOOGLE_CREDENTIALS_BASE64": creds,
	}))
	require.NoError(t, err)
	assert.Equal(t, BackendSheets, cfg.StoreBackend)
	assert.JSONEq(t, `{"type":"service_account"}`, string(cfg.GoogleCredentials))

	_, err = load(env(map[string]string{"TELEGRAM_BOT_TOKEN": "tok", "STORE_BACKEND": "sheets"}))
	assert.Error(t, err)
}

func TestLoadRejectsBadValues(t *testing.T) {
	for name, vars := range map[string]map[string]string{
		"timeout":  {"STORE_TIMEOUT": "soon"},
		"backend":  {"STORE_BACKEND": "postgres"},
		"chat":     {"ALLOWED_CHAT_IDS": "12,abc"},
		"logfile":  {"LOG_TO_FILE": "maybe"},
		"reminder": {"REMINDER_INTERVAL": "daily"},
	} {
		t.Run(name, func(t *testing.T) {
			vars["TELEGRAM_BOT_TOKEN"] = "tok"
			_, err := load(env(vars))
			assert.Error(t, err)
		})
	}
}

func TestAllowedChats(t *testing.T) {
	cfg, err := load(env(map[string]string{"TELEGRAM_BOT_TOKEN": "tok", "ALLOWED_CHAT_IDS": " 10, 20 "}))
	require.NoError(t, err)
	assert.True(t, cfg.ChatAllowed(10))
	assert.True(t, cfg.ChatAllowed(20))
	assert.False(t, cfg.ChatAllowed(30))
	assert.Equal(t, []int64{10, 20}, cfg.ChatIDs())
}

func TestReminderInterval(t *testing.T) {
	cfg, err := load(env(map[string]string{"TELEGRAM_BOT_TOKEN": "tok"}))
	require.NoError(t, err)
	assert.Zero(t, cfg.ReminderInterval)

	cfg, err = load(env(map[string]string{"TELEGRAM_BOT_TOKEN": "tok", "REMINDER_INTERVAL": "24h"}))
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, cfg.ReminderInterval)
}
