package config

import "time"

// Application constants
const (
	AppName    = "expenditure"
	AppVersion = "1.0.0"

	// File Paths (relative to the base directory)
	DefaultRawDir         = "data/raw"
	DefaultTransformedDir = "data/transformed"
	DefaultCleanedDir     = "data/cleaned"
	DefaultLogsDir        = "logs"

	// Output naming
	TransformedSuffix = "_transformed.csv"
	CleanedSuffix     = "_cleaned.csv"
	CombinedFileName  = "expenditure_analysis.csv"

	// Rate Limiting
	DefaultRateLimit = 100 // requests per second
	DefaultBurstSize = 50

	// Operations
	DefaultRunTimeout  = 30 * time.Minute
	DefaultHistorySize = 20

	// Log Settings
	DefaultLogLevel = "info"

	// API Endpoints
	APIBasePath        = "/api/v1"
	RunsEndpoint       = "/api/v1/runs"
	CategoriesEndpoint = "/api/v1/categories"
	HealthEndpoint     = "/api/health"
	MetricsEndpoint    = "/metrics"
)
