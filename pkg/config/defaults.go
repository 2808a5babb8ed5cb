package config

// Locale discovery defaults.
const (
	DefaultLocalesRoot       = "."
	DefaultLocalesStrictTags = false
)

// Extraction defaults.
const (
	DefaultExtractWorkers     = 0 // Number of CPUs.
	DefaultExtractCacheSize   = 512
	DefaultExtractMaxFileSize = "4MiB"
)

// Output and logging defaults.
const (
	DefaultOutputFormat = "json"
	DefaultLogLevel     = "info"
	DefaultLogJSON      = false
)
