package config

import (
	"bytes"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper(t *testing.T, yaml string) *viper.Viper {
	t.Helper()
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)
	require.NoError(t, v.ReadConfig(bytes.NewBufferString(yaml)))
	return v
}

func TestDecodeDefaults(t *testing.T) {
	cfg, err := decode(newViper(t, ""))
	require.NoError(t, err)

	assert.Equal(t, SourcePostgres, cfg.Platform.Source)
	assert.Equal(t, "default", cfg.Platform.StoreCode)
	assert.Equal(t, 6379, cfg.Redis.Port)
	assert.Equal(t, 300, cfg.Redis.CategoryCacheTTL)
	assert.True(t, cfg.Pixel.Enabled)
}

func TestDecodeOverrides(t *testing.T) {
	cfg, err := decode(newViper(t, `
pixel:
  pixel_id: "123456"
platform:
  source: rest
  base_url: https://shop.example.com/rest
  store_code: de
workers:
  count: 8
`))
	require.NoError(t, err)

	assert.Equal(t, "123456", cfg.Pixel.PixelID)
	assert.Equal(t, SourceREST, cfg.Platform.Source)
	assert.Equal(t, "https://shop.example.com/rest", cfg.Platform.BaseURL)
	assert.Equal(t, "de", cfg.Platform.StoreCode)
	assert.Equal(t, 8, cfg.Workers.Count)
}

func TestValidate(t *testing.T) {
	t.Run("Fail on unknown source", func(t *testing.T) {
		_, err := decode(newViper(t, "platform:\n  source: soap\n"))
		assert.ErrorContains(t, err, "unknown platform source")
	})

	t.Run("Fail on empty store code", func(t *testing.T) {
		_, err := decode(newViper(t, "platform:\n  store_code: \"\"\n"))
		assert.ErrorContains(t, err, "store_code")
	})

	t.Run("Fail on zero workers", func(t *testing.T) {
		_, err := decode(newViper(t, "workers:\n  count: 0\n"))
		assert.ErrorContains(t, err, "workers.count")
	})
}
