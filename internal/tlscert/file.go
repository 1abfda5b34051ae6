package tlscert

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"os"
)

// fileManager serves a certificate pair from disk, reloading the pair on
// every handshake so rotated certificates take effect without a restart.
type fileManager struct {
	certFile string
	keyFile  string
	logger   *slog.Logger
}

func newFileManager(cfg Config, logger *slog.Logger) (Manager, error) {
	if cfg.CertFile == "" || cfg.KeyFile == "" {
		return nil, fmt.Errorf("file mode needs both a certificate and a key file")
	}

	for _, path := range []string{cfg.CertFile, cfg.KeyFile} {
		info, err := os.Stat(path)
		switch {
		case err != nil:
			return nil, fmt.Errorf("tls file not accessible: %w", err)
		case info.IsDir():
			return nil, fmt.Errorf("tls path %s is a directory", path)
		case info.Size() == 0:
			return nil, fmt.Errorf("tls file %s is empty", path)
		}
	}

	if err := checkKeyPermissions(cfg.KeyFile); err != nil {
		return nil, err
	}

	// Load once up front so a bad pair fails at startup, not on the
	// first handshake.
	if _, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile); err != nil {
		return nil, fmt.Errorf("failed to load certificate: %w", err)
	}

	return &fileManager{certFile: cfg.CertFile, keyFile: cfg.KeyFile, logger: logger}, nil
}

func (m *fileManager) GetTLSConfig() (*tls.Config, error) {
	return &tls.Config{
		MinVersion: MinTLSVersion,
		GetCertificate: func(*tls.ClientHelloInfo) (*tls.Certificate, error) {
			cert, err := tls.LoadX509KeyPair(m.certFile, m.keyFile)
			if err != nil {
				m.logger.Error("failed to reload certificate",
					slog.String("cert_file", m.certFile),
					slog.String("error", err.Error()))
				return nil, err
			}
			return &cert, nil
		},
	}, nil
}

func (m *fileManager) Description() string {
	return fmt.Sprintf("file-based (cert=%s, key=%s)", m.certFile, m.keyFile)
}

func (m *fileManager) Shutdown() error { return nil }

func checkKeyPermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode&0077 != 0 {
		return fmt.Errorf("key file %s has permissions %o, want 0600 or 0400", path, mode)
	}
	return nil
}
