package archive

// Config holds configuration for the raw telemetry archive.
// Archiving is disabled when Endpoint is empty.
type Config struct {
	// Endpoint is the S3/MinIO endpoint (host:port or URL).
	Endpoint string `mapstructure:"endpoint" default:""`
	// AccessKey is the S3 access key.
	AccessKey string `mapstructure:"access_key" default:""`
	// SecretKey is the S3 secret key.
	SecretKey string `mapstructure:"secret_key" default:""`
	// Bucket is the bucket receiving archived payloads.
	Bucket string `mapstructure:"bucket" default:"fleet-telemetry"`
	// Prefix is prepended to every archived object name.
	Prefix string `mapstructure:"prefix" default:"telemetry/raw"`
	// Region is the S3 region.
	Region string `mapstructure:"region" default:""`
	// UseSSL enables TLS for the endpoint.
	UseSSL bool `mapstructure:"use_ssl" default:"false"`
	// TimeoutSeconds bounds connection setup and response waits.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
}

// Enabled reports whether an archive endpoint is configured.
func (c Config) Enabled() bool {
	return c.Endpoint != ""
}
