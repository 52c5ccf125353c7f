package tlsconfig

import (
	"crypto/tls"
	"testing"
)

func TestClientDefaults(t *testing.T) {
	cfg, err := Client(Options{ServerName: "example.com"})
	if err != nil {
		t.Fatalf("Client: %v", err)
	}
	if cfg.MinVersion != tls.VersionTLS12 {
		t.Errorf("MinVersion = %#x, want TLS 1.2", cfg.MinVersion)
	}
	if cfg.ServerName != "example.com" {
		t.Errorf("ServerName = %q", cfg.ServerName)
	}
	if cfg.InsecureSkipVerify {
		t.Error("InsecureSkipVerify should default to false")
	}
	if len(cfg.NextProtos) != 1 || cfg.NextProtos[0] != "http/1.1" {
		t.Errorf("NextProtos = %v", cfg.NextProtos)
	}
}

func TestClientDisableSNI(t *testing.T) {
	cfg, err := Client(Options{ServerName: "example.com", DisableSNI: true})
	if err != nil {
		t.Fatalf("Client: %v", err)
	}
	if cfg.ServerName != "" {
		t.Errorf("ServerName = %q, want empty with SNI disabled", cfg.ServerName)
	}
}

func TestClientRejectsBadCABundle(t *testing.T) {
	_, err := Client(Options{ServerName: "example.com", RootCAs: []byte("not a pem")})
	if err == nil {
		t.Fatal("expected error for malformed CA bundle")
	}
}

func TestVersionName(t *testing.T) {
	if got := VersionName(VersionTLS13); got != "TLS 1.3" {
		t.Errorf("VersionName(TLS13) = %q", got)
	}
	if got := VersionName(0x0300); got != "0x0300" {
		t.Errorf("VersionName(unknown) = %q", got)
	}
}
