package configfx_test

import (
	"testing"
	"time"

	"github.com/mertssmnoglu/redisfx/internal/configfx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Addr            string        `conf:"addr"             default:"127.0.0.1:6380"`
	MaxClients      int           `conf:"max_clients"      default:"10000"`
	ShutdownTimeout time.Duration `conf:"shutdown_timeout" default:"5s"`
}

func TestLoadUsesDefaultsWhenNoResourceMatches(t *testing.T) {
	t.Parallel()

	manager := configfx.NewConfigManager()

	cfg := &testConfig{}
	err := manager.Load(cfg)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:6380", cfg.Addr)
	assert.Equal(t, 10000, cfg.MaxClients)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
}

func TestLoadPrefersResourceOverDefault(t *testing.T) {
	t.Parallel()

	manager := configfx.NewConfigManager()

	cfg := &testConfig{}
	resource := func(target *map[string]string) error {
		(*target)["ADDR"] = "0.0.0.0:6379"
		(*target)["MAX_CLIENTS"] = "42"

		return nil
	}

	err := manager.Load(cfg, resource)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:6379", cfg.Addr)
	assert.Equal(t, 42, cfg.MaxClients)
}

func TestLoadMetaRejectsNonStruct(t *testing.T) {
	t.Parallel()

	manager := configfx.NewConfigManager()

	var notStruct int

	_, err := manager.LoadMeta(&notStruct)
	assert.ErrorIs(t, err, configfx.ErrNotStruct)
}
