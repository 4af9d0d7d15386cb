package cfg

import (
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/samber/lo"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return lo.CoalesceOrEmpty(Version, "unknown")
}

type rawCfg struct {
	// Descriptor sources
	SeriesDir   string `long:"series-dir" env:"SERIES_DIR" default:"./data/jsonFiles" description:"Directory holding one sub-directory per series with its manwhaDescription.json"`
	CatalogFile string `long:"catalog-file" env:"CATALOG_FILE" description:"Series registry file (YAML or JSON); when unset every series directory is served"`
	Storage     string `long:"storage" env:"STORAGE" default:"fs" choice:"fs" choice:"sqlite" description:"Where feeds read descriptors from"`
	DBPath      string `long:"db-path" env:"DB_PATH" default:"./chapter-feed.db" description:"SQLite database file used with --storage=sqlite"`

	// HTTP
	Port         string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	BaseUrl      string `long:"base-url" env:"BASE_URL" description:"Public base URL for the service (e.g., https://feeds.example.com)"`
	ImageBaseURL string `long:"image-base-url" env:"IMAGE_BASE_URL" description:"Base URL prepended to stored image paths"`
	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for the admin endpoints (optional)"`

	// Feeds
	WindowDays       float64       `long:"window-days" env:"WINDOW_DAYS" default:"3" description:"Default width of the recent chapters feed in days"`
	RecentChapters   int           `long:"recent-chapters" env:"RECENT_CHAPTERS" default:"3" description:"Chapters listed per series in the latest updates feed"`
	WorkerCount      int           `long:"worker-count" env:"WORKER_COUNT" default:"8" description:"Number of workers loading descriptors and running imports"`
	AggregateTimeout time.Duration `long:"aggregate-timeout" env:"AGGREGATE_TIMEOUT" default:"10s" description:"Time budget for loading descriptors per request"`

	SchedulerInterval int `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"300" description:"Import interval in seconds"`

	Debug bool `long:"debug" env:"DEBUG" description:"Enable debug logging and upload history checks"`
}

// Load reads the configuration from the command line and environment.
// It returns nil, nil when help was requested.
func Load() (*Cfg, error) {
	return LoadArgs(os.Args[1:])
}

func LoadArgs(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		SeriesDir:         raw.SeriesDir,
		CatalogFile:       raw.CatalogFile,
		Storage:           raw.Storage,
		DBPath:            raw.DBPath,
		Port:              raw.Port,
		BaseUrl:           raw.BaseUrl,
		ImageBaseURL:      raw.ImageBaseURL,
		APIAccessKey:      raw.APIAccessKey,
		WindowDays:        raw.WindowDays,
		RecentChapters:    raw.RecentChapters,
		WorkerCount:       raw.WorkerCount,
		AggregateTimeout:  raw.AggregateTimeout,
		SchedulerInterval: raw.SchedulerInterval,
		Debug:             raw.Debug,
		Version:           GetVersion(),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Cfg) validate() error {
	switch {
	case c.Storage != StorageFS && c.Storage != StorageSQLite:
		return fmt.Errorf("invalid storage %q: expected %q or %q", c.Storage, StorageFS, StorageSQLite)
	case c.WindowDays <= 0 || math.IsNaN(c.WindowDays) || math.IsInf(c.WindowDays, 0):
		return fmt.Errorf("window days must be a finite positive number, got %g", c.WindowDays)
	case c.RecentChapters <= 0:
		return fmt.Errorf("recent chapters must be positive, got %d", c.RecentChapters)
	case c.WorkerCount <= 0:
		return fmt.Errorf("worker count must be positive, got %d", c.WorkerCount)
	case c.AggregateTimeout <= 0:
		return fmt.Errorf("aggregate timeout must be positive, got %s", c.AggregateTimeout)
	case c.SchedulerInterval <= 0:
		return fmt.Errorf("scheduler interval must be positive, got %d", c.SchedulerInterval)
	}
	return nil
}
