package schemaregistry

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/twmb/franz-go/pkg/sr"

	"github.com/nerrad567/batterygen/internal/infrastructure/config"
)

// defaultRequestTimeout bounds a single registry HTTP request when the
// configuration does not set one.
const defaultRequestTimeout = 10 * time.Second

// latestVersion asks the registry for the newest registered version.
const latestVersion = -1

// Schema is one registered schema version.
type Schema struct {
	Subject    string
	Version    int
	ID         int
	Definition string
}

// Client resolves schemas from a Confluent-compatible schema registry.
//
// It only ever reads: schemas are never registered, and lookups always
// return the latest registered version of a subject.
type Client struct {
	cl  *sr.Client
	url string
}

// Connect builds a registry client from configuration.
//
// No request is made until Latest is called; an unreachable registry
// surfaces there.
func Connect(cfg config.SchemaRegistryConfig) (*Client, error) {
	timeout := time.Duration(cfg.TimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	opts := []sr.ClientOpt{
		sr.URLs(cfg.URL),
		sr.HTTPClient(&http.Client{Timeout: timeout}),
	}
	if cfg.Username != "" {
		opts = append(opts, sr.BasicAuth(cfg.Username, cfg.Password))
	}

	cl, err := sr.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	return &Client{cl: cl, url: cfg.URL}, nil
}

// Latest returns the latest registered version of subject.
func (c *Client) Latest(ctx context.Context, subject string) (Schema, error) {
	ss, err := c.cl.SchemaByVersion(ctx, subject, latestVersion)
	if err != nil {
		return Schema{}, fmt.Errorf("%w: subject %q at %s: %w", ErrLookupFailed, subject, c.url, err)
	}
	if ss.Type != sr.TypeAvro {
		return Schema{}, fmt.Errorf("%w: subject %q is %s", ErrUnsupportedType, subject, ss.Type)
	}

	return Schema{
		Subject:    ss.Subject,
		Version:    ss.Version,
		ID:         ss.ID,
		Definition: ss.Schema.Schema,
	}, nil
}
