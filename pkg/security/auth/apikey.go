package auth

import (
	"errors"
	"sync"

	"creotrail/validator/pkg/config"
)

var (
	// ErrInvalidAPIKey is returned for keys that are not configured.
	ErrInvalidAPIKey = errors.New("invalid API key")

	// ErrAPIKeyDisabled is returned for configured keys that are turned off.
	ErrAPIKeyDisabled = errors.New("API key disabled")
)

// APIKeyValidator validates API keys against a configured set of keys
type APIKeyValidator struct {
	mu   sync.RWMutex
	keys map[string]*APIKeyInfo
}

// NewAPIKeyValidator creates a new API key validator with the given keys
func NewAPIKeyValidator(keys []*APIKeyInfo) *APIKeyValidator {
	keyMap := make(map[string]*APIKeyInfo)
	for _, key := range keys {
		keyMap[key.Key] = key
	}

	return &APIKeyValidator{
		keys: keyMap,
	}
}

// NewValidatorFromConfig builds a validator from the security.authentication
// key list.
func NewValidatorFromConfig(cfg []config.APIKeyConfig) *APIKeyValidator {
	keys := make([]*APIKeyInfo, 0, len(cfg))
	for i := range cfg {
		keys = append(keys, &APIKeyInfo{
			Key:     cfg[i].Key,
			Name:    cfg[i].Name,
			Enabled: cfg[i].IsEnabled(),
		})
	}
	return NewAPIKeyValidator(keys)
}

// Validate checks if the given API key is valid and returns its info
func (v *APIKeyValidator) Validate(key string) (*APIKeyInfo, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	info, ok := v.keys[key]
	if !ok {
		return nil, ErrInvalidAPIKey
	}

	if !info.Enabled {
		return nil, ErrAPIKeyDisabled
	}

	return info, nil
}

// List returns all configured API keys
func (v *APIKeyValidator) List() []*APIKeyInfo {
	v.mu.RLock()
	defer v.mu.RUnlock()

	keys := make([]*APIKeyInfo, 0, len(v.keys))
	for _, key := range v.keys {
		keys = append(keys, key)
	}
	return keys
}

// Add adds a new API key to the validator
func (v *APIKeyValidator) Add(info *APIKeyInfo) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.keys[info.Key] = info
}

// Remove removes an API key from the validator
func (v *APIKeyValidator) Remove(key string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.keys, key)
}
