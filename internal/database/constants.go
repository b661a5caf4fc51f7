package database

// Connection pool defaults shared by the SQL backends
const (
	// DefaultMaxOpenConns is used when the configuration leaves the pool size unset
	DefaultMaxOpenConns = 5

	// DefaultMaxIdleConns is used when the configuration leaves the idle pool size unset
	DefaultMaxIdleConns = 2
)
