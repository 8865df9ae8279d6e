package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	App        AppConfig
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Shopee     ShopeeConfig
	Telegram   TelegramConfig
	Copywriter CopywriterConfig
	Curation   CurationConfig
}

type AppConfig struct {
	Name        string
	Version     string
	Environment string
	RunMode     string // "server" keeps the ops API up, "once" runs a single cycle and exits
}

type ServerConfig struct {
	Port string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type RedisConfig struct {
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	// Enabled gates the cooldown cache; when off the tracker reads Postgres only.
	Enabled bool
}

type JWTConfig struct {
	SecretKey string
}

type ShopeeConfig struct {
	PartnerID  string
	APIKey     string
	GraphQLURL string
}

type TelegramConfig struct {
	BotToken string
	ChatID   string
	DryRun   bool
}

type CopywriterConfig struct {
	BaseURL           string
	APIKey            string
	Model             string
	BasicAuthUsername string
	BasicAuthPassword string
	Enabled           bool
}

// CurationConfig holds the pipeline tuning knobs. The weights and caps are
// business tuning values surfaced as configuration, not derived.
type CurationConfig struct {
	TargetPosts          int
	PagesPerQuery        int
	ItemsPerPage         int
	Keywords             []string
	ShopIDs              []int64
	MinRating            float64
	MinDiscount          float64
	MinRelevance         float64
	MaxCategoryShare     float64
	CooldownDays         int
	RescueCooldownFactor float64
	MaxRescueReposts     int
	EVWindowDays         int
	RelevanceTopK        int
	Variant              string
	CTA                  string
	PublishPauseMillis   int
}

var defaultKeywords = []string{
	"caixa de som bluetooth",
	"fone de ouvido sem fio",
	"smartwatch",
	"teclado mecanico",
	"mouse gamer",
	"air fryer",
	"projetor hy300",
	"camera de seguranca",
}

var defaultShopIDs = []int64{
	369632653, 288420684, 286277644, 1157280425, 1315886500, 349591196, 886950101,
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	curation, err := loadCuration()
	if err != nil {
		return nil, err
	}

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}

	dryRun := getEnv("DRY_RUN", "0") == "1"

	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "PromoHunter"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			Environment: getEnv("APP_ENV", "development"),
			RunMode:     getEnv("RUN_MODE", "server"),
		},
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "promo_hunter"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		Redis: RedisConfig{
			RedisHost:     getEnv("REDIS_HOST", "localhost"),
			RedisPort:     getEnv("REDIS_PORT", "6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       redisDB,
			Enabled:       getEnv("REDIS_ENABLED", "1") == "1",
		},
		JWT: JWTConfig{
			SecretKey: getEnv("JWT_SECRET", ""),
		},
		Shopee: ShopeeConfig{
			PartnerID:  getEnv("SHOPEE_PARTNER_ID", ""),
			APIKey:     getEnv("SHOPEE_API_KEY", ""),
			GraphQLURL: getEnv("SHOPEE_GRAPHQL_URL", "https://open-api.affiliate.shopee.com.br/graphql"),
		},
		Telegram: TelegramConfig{
			BotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
			ChatID:   getEnv("TELEGRAM_CHAT_ID", ""),
			DryRun:   dryRun,
		},
		Copywriter: CopywriterConfig{
			BaseURL:           getEnv("COPYWRITER_BASE_URL", "https://generativelanguage.googleapis.com"),
			APIKey:            getEnv("COPYWRITER_API_KEY", ""),
			Model:             getEnv("COPYWRITER_MODEL", "gemini-1.5-flash"),
			BasicAuthUsername: getEnv("COPYWRITER_BASIC_AUTH_USERNAME", ""),
			BasicAuthPassword: getEnv("COPYWRITER_BASIC_AUTH_PASSWORD", ""),
			Enabled:           getEnv("COPYWRITER_ENABLED", "1") == "1",
		},
		Curation: curation,
	}

	if cfg.Shopee.PartnerID == "" || cfg.Shopee.APIKey == "" {
		return nil, errors.New("missing shopee credentials (SHOPEE_PARTNER_ID / SHOPEE_API_KEY)")
	}

	if !dryRun && (cfg.Telegram.BotToken == "" || cfg.Telegram.ChatID == "") {
		return nil, errors.New("missing telegram credentials (TELEGRAM_BOT_TOKEN / TELEGRAM_CHAT_ID)")
	}

	if cfg.Database.Password == "" {
		return nil, errors.New("missing database password")
	}

	if cfg.JWT.SecretKey == "" {
		return nil, errors.New("missing jwt secret")
	}

	if cfg.App.RunMode != "server" && cfg.App.RunMode != "once" {
		return nil, fmt.Errorf("invalid RUN_MODE %q (want server or once)", cfg.App.RunMode)
	}

	return cfg, nil
}

func loadCuration() (CurationConfig, error) {
	c := CurationConfig{
		Keywords: splitList(getEnv("SEARCH_KEYWORDS", "")),
		Variant:  strings.ToUpper(getEnv("AB_VARIANT", "A")),
		CTA:      getEnv("CTA_DEFAULT", "Ver oferta"),
	}
	if len(c.Keywords) == 0 {
		c.Keywords = defaultKeywords
	}

	shopIDs, err := parseShopIDs(getEnv("SHOP_IDS", ""))
	if err != nil {
		return CurationConfig{}, err
	}
	c.ShopIDs = shopIDs
	if len(c.ShopIDs) == 0 {
		c.ShopIDs = defaultShopIDs
	}

	intFields := []struct {
		dst *int
		key string
		def int
	}{
		{&c.TargetPosts, "POSTS_PER_RUN", 6},
		{&c.PagesPerQuery, "PAGES_PER_QUERY", 2},
		{&c.ItemsPerPage, "ITEMS_PER_PAGE", 15},
		{&c.CooldownDays, "REPOST_COOLDOWN_DAYS", 5},
		{&c.MaxRescueReposts, "MAX_RESCUE_REPOSTS", 3},
		{&c.EVWindowDays, "EV_WINDOW_DAYS", 28},
		{&c.RelevanceTopK, "RELEVANCE_TOP_K", 6},
		{&c.PublishPauseMillis, "PUBLISH_PAUSE_MS", 600},
	}
	for _, f := range intFields {
		v, err := getEnvInt(f.key, f.def)
		if err != nil {
			return CurationConfig{}, err
		}
		*f.dst = v
	}

	floatFields := []struct {
		dst *float64
		key string
		def float64
	}{
		{&c.MinRating, "MIN_RATING", 4.7},
		{&c.MinDiscount, "MIN_DISCOUNT", 0.15},
		{&c.MinRelevance, "MIN_RELEVANCE_SCORE", 65},
		{&c.MaxCategoryShare, "MAX_CATEGORY_SHARE", 0.5},
		{&c.RescueCooldownFactor, "RESCUE_COOLDOWN_FACTOR", 0.6},
	}
	for _, f := range floatFields {
		v, err := getEnvFloat(f.key, f.def)
		if err != nil {
			return CurationConfig{}, err
		}
		*f.dst = v
	}

	if c.TargetPosts <= 0 {
		return CurationConfig{}, errors.New("POSTS_PER_RUN must be positive")
	}
	if c.MaxCategoryShare <= 0 || c.MaxCategoryShare > 1 {
		return CurationConfig{}, errors.New("MAX_CATEGORY_SHARE must be in (0,1]")
	}
	if c.RescueCooldownFactor < 0 || c.RescueCooldownFactor > 1 {
		return CurationConfig{}, errors.New("RESCUE_COOLDOWN_FACTOR must be in [0,1]")
	}

	return c, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid integer for %s: %q", key, val)
	}
	return n, nil
}

func getEnvFloat(key string, defaultVal float64) (float64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number for %s: %q", key, val)
	}
	return f, nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func parseShopIDs(s string) ([]int64, error) {
	parts := splitList(s)
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid shop id %q in SHOP_IDS", p)
		}
		out = append(out, id)
	}
	return out, nil
}
