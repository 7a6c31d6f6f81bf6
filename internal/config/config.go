package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/i474232898/reservoir-geojson/internal/common"
)

// DefaultSites are the California reservoir gauges with storage records.
// 10308785 is listed twice upstream; the request de-duplicates it.
var DefaultSites = []string{
	"09427500", "10292500", "10308785", "10308785", "10337000", "10338400",
	"10340300", "10342900", "10344300", "10344490", "11020600", "11022100",
	"11042510", "11109700", "11122000", "11128300", "11275500", "11277200",
	"11277500", "11287500", "11450000", "11451290",
}

const dateLayout = "2006-01-02"

type AppConfig struct {
	// Sites whose readings are requested.
	Sites []string `validate:"required,min=1,dive,numeric,min=8,max=15"`
	// ParameterCode is the NWIS parameter (00054 = reservoir storage, acre-ft).
	ParameterCode string    `validate:"required,numeric,len=5"`
	StartDate     time.Time `validate:"required"`
	EndDate       time.Time `validate:"required,gtefield=StartDate"`
	NWISBaseURL   string    `validate:"required,url"`

	InventoryPath string        `validate:"required"`
	CachePath     string        `validate:"required"`
	CacheMaxAge   time.Duration `validate:"gte=0"` // 0 = cache never expires
	OutputPath    string        `validate:"required"`

	HTTPTimeout     time.Duration `validate:"gt=0"`
	RefreshInterval time.Duration `validate:"gte=0"`

	// In-memory history retention.
	StoreMaxHistory int `validate:"gte=0"` // 0 = unlimited

	Port string `validate:"required,numeric"`
}

var validate = validator.New()

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.Sites = DefaultSites
	if v := os.Getenv("USGS_SITES"); v != "" {
		cfg.Sites = common.SplitList(v)
	}
	cfg.ParameterCode = getenvDefault("USGS_PARAMETER_CODE", "00054")
	cfg.NWISBaseURL = getenvDefault("USGS_BASE_URL", "https://nwis.waterdata.usgs.gov/nwis/uv")

	var err error
	if cfg.StartDate, err = getenvDate("USGS_START_DATE", "2007-10-01"); err != nil {
		return nil, err
	}
	if cfg.EndDate, err = getenvDate("USGS_END_DATE", "2014-10-07"); err != nil {
		return nil, err
	}

	cfg.InventoryPath = getenvDefault("INVENTORY_PATH", "inventory.txt")
	cfg.CachePath = getenvDefault("CACHE_PATH", "usgsFull.txt")
	cfg.OutputPath = getenvDefault("OUTPUT_PATH", "usgsReservoir.json")

	if cfg.CacheMaxAge, err = getenvDuration("CACHE_MAX_AGE", "0s"); err != nil {
		return nil, err
	}
	// The full 2007-2014 hourly series is large; allow a slow transfer.
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "5m"); err != nil {
		return nil, err
	}
	if cfg.RefreshInterval, err = getenvDuration("REFRESH_INTERVAL", "24h"); err != nil {
		return nil, err
	}

	cfg.StoreMaxHistory = getenvInt("STORE_MAX_HISTORY", 10)
	cfg.Port = getenvDefault("PORT", "8080")

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getenvDate(key, def string) (time.Time, error) {
	t, err := time.Parse(dateLayout, getenvDefault(key, def))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s: %w", key, err)
	}
	return t, nil
}
