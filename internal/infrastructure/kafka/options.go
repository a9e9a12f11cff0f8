package kafka

import (
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/sasl/plain"

	"github.com/nerrad567/batterygen/internal/infrastructure/config"
)

const (
	// defaultPingTimeout bounds the startup reachability check.
	defaultPingTimeout = 10 * time.Second

	// tlsMinVersion is the minimum TLS version for broker connections.
	tlsMinVersion = tls.VersionTLS12
)

// buildOptions translates producer configuration into kgo options.
//
// This configures:
//   - Seed brokers and client id
//   - SASL/PLAIN credentials and TLS
//   - Acknowledgement level, retry budget and timeouts
//   - Linger and maximum batch size
func buildOptions(cfg config.KafkaConfig) ([]kgo.Opt, error) {
	acks, allISR, err := parseAcks(cfg.Acks)
	if err != nil {
		return nil, err
	}

	opts := []kgo.Opt{
		kgo.SeedBrokers(splitBrokers(cfg.Bootstrap)...),
		kgo.ClientID(cfg.ClientID),
		kgo.RequiredAcks(acks),
		kgo.ProducerLinger(cfg.GetLinger()),
	}

	// Idempotent writes require acks=all.
	if !allISR {
		opts = append(opts, kgo.DisableIdempotentWrite())
	}
	if cfg.Retries > 0 {
		opts = append(opts, kgo.RecordRetries(cfg.Retries))
	}
	if d := cfg.GetRequestTimeout(); d > 0 {
		opts = append(opts, kgo.ProduceRequestTimeout(d))
	}
	if d := cfg.GetDeliveryTimeout(); d > 0 {
		opts = append(opts, kgo.RecordDeliveryTimeout(d))
	}
	if cfg.BatchMaxBytes > 0 {
		opts = append(opts, kgo.ProducerBatchMaxBytes(cfg.BatchMaxBytes))
	}
	if cfg.TLS {
		opts = append(opts, kgo.DialTLSConfig(&tls.Config{MinVersion: tlsMinVersion}))
	}
	if cfg.SASL.Username != "" {
		opts = append(opts, kgo.SASL(plain.Auth{
			User: cfg.SASL.Username,
			Pass: cfg.SASL.Password,
		}.AsMechanism()))
	}

	return opts, nil
}

// parseAcks maps an acks setting to kgo.Acks and reports whether it
// waits for all in-sync replicas.
func parseAcks(s string) (kgo.Acks, bool, error) {
	switch strings.ToLower(s) {
	case "all", "":
		return kgo.AllISRAcks(), true, nil
	case "leader":
		return kgo.LeaderAck(), false, nil
	case "none":
		return kgo.NoAck(), false, nil
	default:
		return kgo.Acks{}, false, fmt.Errorf("%w: %q", ErrInvalidAcks, s)
	}
}

func splitBrokers(s string) []string {
	var brokers []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
