package tlscert

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"log/slog"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"time"
)

const selfSignedLifetime = 365 * 24 * time.Hour

// selfSignedManager generates and caches a development certificate under
// the configured directory, regenerating it when it expires or the host
// list changes.
type selfSignedManager struct {
	certPath string
	keyPath  string
}

func newSelfSignedManager(cfg Config, logger *slog.Logger) (Manager, error) {
	hosts := cfg.SelfSignedHosts
	if len(hosts) == 0 {
		hosts = []string{"localhost", "127.0.0.1", "::1"}
	}

	if err := os.MkdirAll(cfg.SelfSignedCertDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create certificate directory: %w", err)
	}

	certPath := filepath.Join(cfg.SelfSignedCertDir, "server.crt")
	keyPath := filepath.Join(cfg.SelfSignedCertDir, "server.key")

	reusable := fileExists(certPath) && fileExists(keyPath) && certUsable(certPath, keyPath, hosts)
	if reusable {
		logger.Info("using existing self-signed certificate",
			slog.String("cert_path", certPath))
	} else {
		logger.Info("generating self-signed certificate",
			slog.String("cert_path", certPath),
			slog.Any("hosts", hosts))
		if err := writeSelfSignedPair(certPath, keyPath, hosts); err != nil {
			return nil, fmt.Errorf("failed to generate self-signed certificate: %w", err)
		}
		logger.Warn("self-signed certificate in use, do not expose this server publicly",
			slog.String("cert_path", certPath))
	}

	return &selfSignedManager{certPath: certPath, keyPath: keyPath}, nil
}

func (m *selfSignedManager) GetTLSConfig() (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(m.certPath, m.keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load self-signed certificate: %w", err)
	}
	return &tls.Config{
		MinVersion:   MinTLSVersion,
		Certificates: []tls.Certificate{cert},
	}, nil
}

func (m *selfSignedManager) Description() string {
	return fmt.Sprintf("self-signed (cert=%s), development only", m.certPath)
}

func (m *selfSignedManager) Shutdown() error { return nil }

func writeSelfSignedPair(certPath, keyPath string, hosts []string) error {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return fmt.Errorf("failed to generate key: %w", err)
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return fmt.Errorf("failed to generate serial number: %w", err)
	}

	template := x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			Organization: []string{"blogql (self-signed)"},
			CommonName:   "localhost",
		},
		// Backdated slightly to tolerate clock skew between host and clients.
		NotBefore:             time.Now().Add(-5 * time.Minute),
		NotAfter:              time.Now().Add(selfSignedLifetime),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
	}
	for _, host := range hosts {
		if ip := net.ParseIP(host); ip != nil {
			template.IPAddresses = append(template.IPAddresses, ip)
		} else {
			template.DNSNames = append(template.DNSNames, host)
		}
	}

	certDER, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		return fmt.Errorf("failed to create certificate: %w", err)
	}
	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return fmt.Errorf("failed to marshal key: %w", err)
	}

	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: certDER})
	if err := os.WriteFile(certPath, certPEM, 0644); err != nil {
		return fmt.Errorf("failed to write certificate: %w", err)
	}
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER})
	if err := os.WriteFile(keyPath, keyPEM, 0600); err != nil {
		return fmt.Errorf("failed to write private key: %w", err)
	}
	return nil
}

// certUsable reports whether the cached pair still parses, is inside its
// validity window, and names exactly the wanted hosts.
func certUsable(certPath, keyPath string, hosts []string) bool {
	certPEM, err := os.ReadFile(certPath)
	if err != nil {
		return false
	}
	block, _ := pem.Decode(certPEM)
	if block == nil || block.Type != "CERTIFICATE" {
		return false
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return false
	}

	now := time.Now()
	if now.Before(cert.NotBefore) || now.After(cert.NotAfter) {
		return false
	}
	if !hostsMatch(cert, hosts) {
		return false
	}
	_, err = tls.LoadX509KeyPair(certPath, keyPath)
	return err == nil
}

func hostsMatch(cert *x509.Certificate, hosts []string) bool {
	wantDNS := make(map[string]struct{})
	wantIP := make(map[string]struct{})
	for _, host := range hosts {
		if ip := net.ParseIP(host); ip != nil {
			wantIP[ip.String()] = struct{}{}
		} else {
			wantDNS[host] = struct{}{}
		}
	}

	if len(cert.DNSNames) != len(wantDNS) || len(cert.IPAddresses) != len(wantIP) {
		return false
	}
	for _, name := range cert.DNSNames {
		if _, ok := wantDNS[name]; !ok {
			return false
		}
	}
	for _, ip := range cert.IPAddresses {
		if _, ok := wantIP[ip.String()]; !ok {
			return false
		}
	}
	return true
}
