package identity

// SimpleConfig is a plain Config implementation for consumers that load
// settings from their own configuration layer.
type SimpleConfig struct {
	SigningKey      string   `json:"signing_key"`
	TokenExpiration int      `json:"token_expiration"`
	Issuer          string   `json:"issuer"`
	Audience        []string `json:"audience"`
}

var _ Config = (*SimpleConfig)(nil)

func (c *SimpleConfig) GetSigningKey() string {
	return c.SigningKey
}

// GetTokenExpiration returns the token TTL in hours. Zero disables expiry:
// tokens stay valid for as long as their claims match a live account.
func (c *SimpleConfig) GetTokenExpiration() int {
	return c.TokenExpiration
}

func (c *SimpleConfig) GetIssuer() string {
	return c.Issuer
}

func (c *SimpleConfig) GetAudience() []string {
	return c.Audience
}
