package auth

// APIKeyInfo represents an accepted API key and its holder.
type APIKeyInfo struct {
	Key     string
	Name    string
	Enabled bool
}

// APIKeyStore stores and validates API keys
type APIKeyStore interface {
	Validate(key string) (*APIKeyInfo, error)
	List() []*APIKeyInfo
}
