package telemetry

// Config holds configuration for the telemetry provider client.
type Config struct {
	// BaseURL is the provider API root.
	BaseURL string `mapstructure:"base_url" default:"https://gps.brasilsatgps.com.br"`
	// Account is the provider account name used for signature auth.
	Account string `mapstructure:"account" default:""`
	// Password is the provider account password. Only its MD5 digest is sent.
	Password string `mapstructure:"password" default:""`
	// TimeoutSeconds bounds each provider HTTP call.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"15"`
	// TokenTTLSeconds is the assumed token lifetime when the provider does not
	// report an expiry alongside the access token.
	TokenTTLSeconds int64 `mapstructure:"token_ttl_seconds" default:"1800"`
	// TokenMarginSeconds is subtracted from the token expiry so a token is
	// refreshed before the provider would reject it mid-request.
	TokenMarginSeconds int64 `mapstructure:"token_margin_seconds" default:"60"`
}
