package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)

	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, time.Hour, cfg.Conflicts.ScanInterval)
	assert.Equal(t, "system_admin", cfg.Conflicts.AdminID)
	assert.Equal(t, 5*time.Second, cfg.Conflicts.StopTimeout)
	assert.Equal(t, "reject", cfg.BusinessHours.WeekendPolicy)
	assert.Equal(t, "08:00", cfg.BusinessHours.Start)
	assert.Equal(t, "timetables", cfg.Mongo.SchedulesCollection)
	assert.Nil(t, cfg.Notifications.ShoutrrrURLs)
}

func TestScanIntervalOverride(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("CONFLICT_SCAN_INTERVAL", "120")
	v.Set("NOTIFY_SHOUTRRR_URLS", "slack://token@channel, ,telegram://t@telegram?chats=1")

	cfg := fromViper(v)

	assert.Equal(t, 2*time.Minute, cfg.Conflicts.ScanInterval)
	assert.Equal(t, []string{"slack://token@channel", "telegram://t@telegram?chats=1"}, cfg.Notifications.ShoutrrrURLs)
}

func TestParseSeconds(t *testing.T) {
	assert.Equal(t, 90*time.Second, parseSeconds("90", time.Hour))
	assert.Equal(t, 15*time.Minute, parseSeconds("15m", time.Hour))
	assert.Equal(t, time.Hour, parseSeconds("", time.Hour))
	assert.Equal(t, time.Hour, parseSeconds("0", time.Hour))
	assert.Equal(t, time.Hour, parseSeconds("soon", time.Hour))
}
