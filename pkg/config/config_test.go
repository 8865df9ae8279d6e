//go:build !integration

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("SHOPEE_PARTNER_ID", "12345")
	t.Setenv("SHOPEE_API_KEY", "secret")
	t.Setenv("DRY_RUN", "1")
	t.Setenv("DB_PASSWORD", "pw")
	t.Setenv("JWT_SECRET", "jwt")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "server", cfg.App.RunMode)
	assert.Equal(t, 6, cfg.Curation.TargetPosts)
	assert.Equal(t, 4.7, cfg.Curation.MinRating)
	assert.Equal(t, 0.15, cfg.Curation.MinDiscount)
	assert.Equal(t, 65.0, cfg.Curation.MinRelevance)
	assert.Equal(t, 0.5, cfg.Curation.MaxCategoryShare)
	assert.Equal(t, 5, cfg.Curation.CooldownDays)
	assert.Equal(t, "A", cfg.Curation.Variant)
	assert.NotEmpty(t, cfg.Curation.Keywords)
	assert.NotEmpty(t, cfg.Curation.ShopIDs)
	assert.True(t, cfg.Telegram.DryRun)
}

func TestLoad_MissingShopeeCredentials(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SHOPEE_API_KEY", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_TelegramRequiredOutsideDryRun(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DRY_RUN", "0")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "telegram")
}

func TestLoad_CustomKeywordsAndShops(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SEARCH_KEYWORDS", "air fryer, smartwatch")
	t.Setenv("SHOP_IDS", "111,222")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"air fryer", "smartwatch"}, cfg.Curation.Keywords)
	assert.Equal(t, []int64{111, 222}, cfg.Curation.ShopIDs)
}

func TestLoad_InvalidShopIDs(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SHOP_IDS", "111,abc")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_InvalidRunMode(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("RUN_MODE", "batch")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RUN_MODE")
}

func TestLoad_VariantNormalized(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("AB_VARIANT", "b")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "B", cfg.Curation.Variant)
}
