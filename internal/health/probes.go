package health

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

// Probes is the concrete Checker wired at startup.
type Probes struct {
	Redis      *redis.Client
	CatalogURL string
	HTTP       *http.Client
}

// PingRedis round-trips a PING against the session store.
func (p Probes) PingRedis(ctx context.Context, timeout time.Duration) error {
	if p.Redis == nil {
		return errors.New("redis not configured")
	}
	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.Redis.Ping(probeCtx).Err()
}

// PingCatalog checks the catalog backend answers HTTP at all. Any response,
// including an error status, proves the host is reachable.
func (p Probes) PingCatalog(ctx context.Context, timeout time.Duration) error {
	if p.CatalogURL == "" {
		return errors.New("catalog url not configured")
	}
	client := p.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(probeCtx, http.MethodHead, p.CatalogURL, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("catalog unreachable: %w", err)
	}
	_ = resp.Body.Close()
	return nil
}
