package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const minimalYAML = `
ledger:
  rpc_url: http://localhost:8545
  chain_id: 1337
  token_contract: "0x0000000000000000000000000000000000000001"
  deposit_address: "0x0000000000000000000000000000000000000002"
deposit:
  required_amount: "1.5"
`

func TestParse_AppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(minimalYAML))
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}

	if cfg.Server.Port != 8090 {
		t.Fatalf("expected default port 8090, got %d", cfg.Server.Port)
	}
	if cfg.Store.Driver != StoreDriverPostgres {
		t.Fatalf("expected default driver postgres, got %s", cfg.Store.Driver)
	}
	if cfg.Monitor.Interval != 30*time.Second {
		t.Fatalf("expected default interval 30s, got %s", cfg.Monitor.Interval)
	}
	if cfg.Refund.MaxAttempts != 5 {
		t.Fatalf("expected default max attempts 5, got %d", cfg.Refund.MaxAttempts)
	}
	if cfg.Deposit.TokenDecimals != 18 {
		t.Fatalf("expected default decimals 18, got %d", cfg.Deposit.TokenDecimals)
	}
}

func TestParse_MissingLedgerFails(t *testing.T) {
	_, err := Parse([]byte("deposit:\n  required_amount: \"1\"\n"))
	if err == nil {
		t.Fatal("expected validation error for missing ledger config")
	}
}

func TestParse_EnvOverridesSecrets(t *testing.T) {
	t.Setenv(EnvSignerKey, "abcd")
	t.Setenv(EnvDatabasePassword, "s3cret")

	cfg, err := Parse([]byte(minimalYAML))
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	if cfg.Ledger.SignerPrivateKey != "abcd" {
		t.Fatalf("expected signer key from env, got %q", cfg.Ledger.SignerPrivateKey)
	}
	if cfg.Database.Password != "s3cret" {
		t.Fatalf("expected db password from env, got %q", cfg.Database.Password)
	}
}

func TestRequiredBaseUnits(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		decimals int32
		want     string
		wantErr  bool
	}{
		{name: "whole", amount: "2", decimals: 6, want: "2000000"},
		{name: "fraction", amount: "1.5", decimals: 18, want: "1500000000000000000"},
		{name: "zero decimals", amount: "7", decimals: 0, want: "7"},
		{name: "too precise", amount: "0.0000001", decimals: 6, wantErr: true},
		{name: "negative", amount: "-1", decimals: 6, wantErr: true},
		{name: "garbage", amount: "abc", decimals: 6, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DepositConfig{RequiredAmount: tc.amount, TokenDecimals: tc.decimals}.RequiredBaseUnits()
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %s", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.String() != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestLoad_ReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(minimalYAML), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Ledger.ChainID != 1337 {
		t.Fatalf("expected chain id 1337, got %d", cfg.Ledger.ChainID)
	}
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	if _, err := NewLogger(LoggingConfig{Level: "loud", Format: "json"}); err == nil {
		t.Fatal("expected error for invalid level")
	}
}
