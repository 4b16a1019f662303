package config

import (
	"reflect"
	"testing"
)

func TestParseCommaSeparated(t *testing.T) {
	got := parseCommaSeparated("https://app.example.com, http://localhost:3000 ,")
	expected := []string{"https://app.example.com", "http://localhost:3000"}
	if !reflect.DeepEqual(got, expected) {
		t.Fatalf("parseCommaSeparated() = %v, expected %v", got, expected)
	}

	if parseCommaSeparated("") != nil {
		t.Fatalf("expected nil for empty input")
	}
}

func TestAuth0Config_Audiences(t *testing.T) {
	t.Run("API audience first, then client id", func(t *testing.T) {
		cfg := Auth0Config{Audience: "https://api.magicminds.app", ClientID: "client-123"}
		got := cfg.Audiences()
		expected := []string{"https://api.magicminds.app", "client-123"}
		if !reflect.DeepEqual(got, expected) {
			t.Fatalf("Audiences() = %v, expected %v", got, expected)
		}
	})

	t.Run("Deduplicates identical values", func(t *testing.T) {
		cfg := Auth0Config{Audience: "same", ClientID: "same"}
		if got := cfg.Audiences(); len(got) != 1 {
			t.Fatalf("expected single audience, got %v", got)
		}
	})
}

func TestLoad_DerivesIssuerAndJWKSURL(t *testing.T) {
	t.Setenv("AUTH0_DOMAIN", "tenant.auth0.com")
	t.Setenv("AUTH0_AUDIENCE", "https://api.magicminds.app")
	t.Setenv("AUTH0_ISSUER", "")
	t.Setenv("AUTH0_JWKS_URL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Auth0.Issuer != "https://tenant.auth0.com/" {
		t.Fatalf("unexpected issuer: %s", cfg.Auth0.Issuer)
	}
	if cfg.Auth0.JWKSURL != "https://tenant.auth0.com/.well-known/jwks.json" {
		t.Fatalf("unexpected jwks url: %s", cfg.Auth0.JWKSURL)
	}
}

func TestValidate_MissingAuth(t *testing.T) {
	cfg := &Config{
		Server:   ServerConfig{Port: 8080},
		Postgres: PostgresConfig{Host: "localhost", Database: "magicminds"},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected validation error when Auth0 config is missing")
	}
}
