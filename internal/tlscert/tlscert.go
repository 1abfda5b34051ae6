// Package tlscert supplies server certificates, either loaded from files
// or generated as throwaway self-signed pairs for local development.
package tlscert

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"os"
)

// CertMode selects where the server certificate comes from.
type CertMode string

const (
	CertModeFile       CertMode = "file"
	CertModeSelfSigned CertMode = "selfsigned"
)

// MinTLSVersion is the floor for incoming connections.
const MinTLSVersion = tls.VersionTLS13

// Config describes the certificate source.
type Config struct {
	Mode CertMode

	// File mode
	CertFile string
	KeyFile  string

	// Self-signed mode
	SelfSignedCertDir string
	SelfSignedHosts   []string
}

// Manager hands out a tls.Config for the HTTP server.
type Manager interface {
	GetTLSConfig() (*tls.Config, error)

	// Description names the certificate source for startup logging.
	Description() string

	Shutdown() error
}

// NewManager picks the manager implementation for the configured mode.
func NewManager(cfg Config, logger *slog.Logger) (Manager, error) {
	switch cfg.Mode {
	case CertModeFile:
		return newFileManager(cfg, logger)
	case CertModeSelfSigned:
		return newSelfSignedManager(cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported TLS certificate mode: %s (valid modes: file, selfsigned)", cfg.Mode)
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
