package messaging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/fystack/trustcore/pkg/config"
	"github.com/fystack/trustcore/pkg/logger"
)

const defaultCertsDir = "certs"

// GetNATSConnection creates the NATS connection used for vault RPC and
// transcript ingestion, with TLS enforced in production.
func GetNATSConnection() (*nats.Conn, error) {
	cfg := config.GetConfig()
	if cfg.NATs == nil {
		return nil, fmt.Errorf("nats configuration is missing")
	}

	opts := []nats.Option{
		nats.MaxReconnects(-1), // retry forever
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectHandler(func(nc *nats.Conn) {
			logger.Warn("Disconnected from NATS")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("Reconnected to NATS", "url", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
	}

	if cfg.Environment == config.Production {
		tlsOpts, err := tlsOptions(cfg.NATs)
		if err != nil {
			return nil, err
		}
		opts = append(opts, tlsOpts...)
	}

	return nats.Connect(cfg.NATs.URL, opts...)
}

func tlsOptions(natsCfg *config.NATsConfig) ([]nats.Option, error) {
	clientCert := certPath(natsCfg, func(t *config.TLSConfig) string { return t.ClientCert }, "client-cert.pem")
	clientKey := certPath(natsCfg, func(t *config.TLSConfig) string { return t.ClientKey }, "client-key.pem")
	caCert := certPath(natsCfg, func(t *config.TLSConfig) string { return t.CACert }, "rootCA.pem")

	for name, path := range map[string]string{
		"client certificate": clientCert,
		"client key":         clientKey,
		"CA certificate":     caCert,
	} {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, fmt.Errorf("%s not found at %s", name, path)
		}
	}

	return []nats.Option{
		nats.ClientCert(clientCert, clientKey),
		nats.RootCAs(caCert),
		nats.UserInfo(natsCfg.Username, natsCfg.Password),
	}, nil
}

// certPath resolves a configured certificate path, falling back to the
// conventional location under ./certs.
func certPath(natsCfg *config.NATsConfig, pick func(*config.TLSConfig) string, fallback string) string {
	if natsCfg.TLS != nil {
		if path := pick(natsCfg.TLS); path != "" {
			return path
		}
	}
	return filepath.Join(".", defaultCertsDir, fallback)
}
