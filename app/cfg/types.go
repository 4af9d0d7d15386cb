package cfg

import "time"

const (
	StorageFS     = "fs"
	StorageSQLite = "sqlite"
)

type Cfg struct {
	// Descriptor sources
	SeriesDir   string
	CatalogFile string
	Storage     string
	DBPath      string

	// HTTP
	Port         string
	BaseUrl      string
	ImageBaseURL string
	APIAccessKey string

	// Feeds
	WindowDays       float64
	RecentChapters   int
	WorkerCount      int
	AggregateTimeout time.Duration

	// Background import, sqlite storage only
	SchedulerInterval int

	Debug   bool
	Version string
}

func (c *Cfg) UsesSQLite() bool {
	return c.Storage == StorageSQLite
}
