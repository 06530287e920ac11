package config

// ServerConfig holds the HTTP API settings. An empty APIToken leaves the
// results endpoint unauthenticated.
type ServerConfig struct {
	Addr     string `json:"addr"`
	APIToken string `json:"api_token"`
}

// SetDefaults applies the default listen address.
func (c *ServerConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
}
