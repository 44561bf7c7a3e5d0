package main

import (
	"testing"

	"github.com/liamashdown/wardai/internal/alerts"
	"github.com/liamashdown/wardai/internal/config"
	"github.com/liamashdown/wardai/internal/cooldown"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAlertSender(t *testing.T) {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	tests := []struct {
		name string
		cfg  *config.Config
		want interface{}
	}{
		{"log only", &config.Config{AlertMode: "log"}, &alerts.LogSender{}},
		{"single discord", &config.Config{AlertMode: "discord", DiscordWebhookURLs: []string{"https://d.example/1"}}, &alerts.DiscordSender{}},
		{"discord fan-out", &config.Config{AlertMode: "discord", DiscordWebhookURLs: []string{"https://d.example/1", "https://d.example/2"}}, &alerts.MultiSender{}},
		{"log and smtp", &config.Config{AlertMode: "log, smtp", SMTPHost: "smtp.example.com", SMTPTo: []string{"a@example.com"}}, &alerts.MultiSender{}},
		{"discord without urls", &config.Config{AlertMode: "discord"}, &alerts.LogSender{}},
		{"unknown mode", &config.Config{AlertMode: "pager"}, &alerts.LogSender{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.IsType(t, tt.want, createAlertSender(tt.cfg, log))
		})
	}
}

func TestCreateCooldownStoreDefaultsToMemory(t *testing.T) {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	store, closeFn, err := createCooldownStore(&config.Config{CooldownBackend: config.CooldownMemory}, log)
	require.NoError(t, err)
	defer closeFn()
	assert.IsType(t, &cooldown.MemoryStore{}, store)
}
