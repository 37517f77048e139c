package auth

import (
	"errors"
	"testing"

	"creotrail/validator/pkg/config"
)

func TestNewValidatorFromConfig(t *testing.T) {
	off := false
	validator := NewValidatorFromConfig([]config.APIKeyConfig{
		{Key: "ct-admin", Name: "admin-cli"},
		{Key: "ct-old", Name: "retired", Enabled: &off},
	})

	if len(validator.keys) != 2 {
		t.Fatalf("Expected 2 keys, got %d", len(validator.keys))
	}
	if !validator.keys["ct-admin"].Enabled {
		t.Error("key without enabled flag should default to enabled")
	}
	if validator.keys["ct-old"].Enabled {
		t.Error("explicitly disabled key should stay disabled")
	}
}

func TestAPIKeyValidator_Validate(t *testing.T) {
	validator := NewAPIKeyValidator([]*APIKeyInfo{
		{Key: "ct-valid", Name: "dashboard", Enabled: true},
		{Key: "ct-disabled", Name: "old", Enabled: false},
	})

	tests := []struct {
		name     string
		key      string
		wantErr  error
		wantName string
	}{
		{name: "valid enabled key", key: "ct-valid", wantName: "dashboard"},
		{name: "disabled key", key: "ct-disabled", wantErr: ErrAPIKeyDisabled},
		{name: "unknown key", key: "ct-unknown", wantErr: ErrInvalidAPIKey},
		{name: "empty key", key: "", wantErr: ErrInvalidAPIKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := validator.Validate(tt.key)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
				}
				if info != nil {
					t.Error("Expected nil info on error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if info.Name != tt.wantName {
				t.Errorf("Expected name %s, got %s", tt.wantName, info.Name)
			}
		})
	}
}

func TestAPIKeyValidator_AddRemoveList(t *testing.T) {
	validator := NewAPIKeyValidator(nil)
	validator.Add(&APIKeyInfo{Key: "ct-a", Name: "a", Enabled: true})
	validator.Add(&APIKeyInfo{Key: "ct-b", Name: "b", Enabled: true})

	if got := len(validator.List()); got != 2 {
		t.Fatalf("Expected 2 keys, got %d", got)
	}

	validator.Remove("ct-a")
	if _, err := validator.Validate("ct-a"); err == nil {
		t.Error("removed key should no longer validate")
	}
	if list := validator.List(); len(list) != 1 || list[0].Key != "ct-b" {
		t.Errorf("unexpected list after remove: %+v", list)
	}
}
