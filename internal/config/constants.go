package config

// Default paths and identifiers
const (
	// DefaultDatabasePath is the default path for the sqlite database
	DefaultDatabasePath = "./shared-reader.db"

	// DefaultTHRBaseURL is the content and identity service used when THR_BASE_URL is unset
	DefaultTHRBaseURL = "https://gbserver3.cs.unc.edu/"

	// DefaultImportOwner is recorded as owner of imported books when no identity is resolved
	DefaultImportOwner = "admin"
)
