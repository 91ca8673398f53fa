package database

// Config holds configuration for the database connection.
type Config struct {
	// Host is the database host.
	Host string `mapstructure:"host" default:"localhost"`
	// Port is the database port.
	Port int `mapstructure:"port" default:"5432"`
	// User is the database user.
	User string `mapstructure:"user" default:"postgres"`
	// Password is the database password.
	Password string `mapstructure:"password" default:""`
	// Name is the database name.
	Name string `mapstructure:"name" default:"postgres"`
	// Schema is the default schema for unqualified table names.
	Schema string `mapstructure:"schema" default:"public"`
	// SSLMode is the libpq sslmode setting (disable, require, verify-full, ...).
	SSLMode string `mapstructure:"sslmode" default:"prefer"`
	// TimeoutSeconds is the connection setup timeout.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
}
