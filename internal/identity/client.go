package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrProfileNotFound means the identity provider has no record for the
// external id. The token validated, so this should not happen in practice;
// callers degrade to placeholder profile data rather than failing.
var ErrProfileNotFound = errors.New("identity profile not found")

// Profile is the canonical user profile held by the identity provider.
// Any field may be blank.
type Profile struct {
	ExternalID string `json:"id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	AvatarURL  string `json:"avatar_url"`
}

// Provider looks up a canonical profile by external user id. Used only on
// the first-time provisioning path.
type Provider interface {
	LookupUser(ctx context.Context, externalID string) (*Profile, error)
}

// Client talks to the identity provider's admin API, with an optional
// redis cache in front so concurrent provisioning races don't fan out
// duplicate lookups.
type Client struct {
	baseURL  string
	apiKey   string
	http     *http.Client
	redis    *redis.Client
	cacheTTL time.Duration
	logger   *slog.Logger
}

func NewClient(baseURL, apiKey string, redisClient *redis.Client, cacheTTL time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL:  baseURL,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: 10 * time.Second},
		redis:    redisClient,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

func (c *Client) cacheKey(externalID string) string {
	return "identity:profile:" + externalID
}

func (c *Client) LookupUser(ctx context.Context, externalID string) (*Profile, error) {
	if c.redis != nil {
		if cached, err := c.redis.Get(ctx, c.cacheKey(externalID)).Bytes(); err == nil {
			var p Profile
			if err := json.Unmarshal(cached, &p); err == nil {
				return &p, nil
			}
		}
	}

	u := fmt.Sprintf("%s/v1/users/%s", c.baseURL, url.PathEscape(externalID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("building identity request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling identity provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrProfileNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("identity provider returned status %d", resp.StatusCode)
	}

	var profile Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("decoding identity profile: %w", err)
	}
	if profile.ExternalID == "" {
		profile.ExternalID = externalID
	}

	if c.redis != nil {
		if data, err := json.Marshal(&profile); err == nil {
			if err := c.redis.Set(ctx, c.cacheKey(externalID), data, c.cacheTTL).Err(); err != nil {
				c.logger.Warn("failed to cache identity profile", "external_id", externalID, "error", err)
			}
		}
	}

	return &profile, nil
}
