// Package gitlab implements the GitLab operations exposed by the runtime.
package gitlab

import (
	"fmt"

	gl "gitlab.com/gitlab-org/api/client-go"

	"github.com/slok/glmcp/internal/conventions"
)

// ClientConfig is the configuration of the GitLab API client.
type ClientConfig struct {
	// Token is the personal, project or group access token. Empty means
	// anonymous access, only public projects will be reachable.
	Token   string
	BaseURL string
}

func (c *ClientConfig) defaults() error {
	if c.BaseURL == "" {
		c.BaseURL = conventions.DefaultGitLabURL
	}
	return nil
}

// NewClient returns a GitLab API client.
func NewClient(cfg ClientConfig) (*gl.Client, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	// Throttled and failed requests are classified as retriable, never retried here.
	client, err := gl.NewClient(cfg.Token,
		gl.WithBaseURL(cfg.BaseURL),
		gl.WithCustomRetryMax(0),
	)
	if err != nil {
		return nil, fmt.Errorf("could not create gitlab client: %w", err)
	}

	return client, nil
}
