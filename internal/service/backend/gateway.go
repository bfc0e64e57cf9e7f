package backend

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"TitaniumDesk/internal/domain/models"
	drepo "TitaniumDesk/internal/domain/repository"
	pkghttp "TitaniumDesk/pkg/http"
)

// Gateway talks to the trading backend's REST surface.
type Gateway struct {
	base   string
	client *pkghttp.Client
}

func NewGateway(baseURL string, timeout time.Duration, opts ...pkghttp.ClientOption) (*Gateway, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("backend url must be http(s), got %q", baseURL)
	}
	opts = append([]pkghttp.ClientOption{pkghttp.WithTimeout(timeout)}, opts...)
	return &Gateway{base: u.String(), client: pkghttp.NewClient(opts...)}, nil
}

var _ drepo.OrderGateway = (*Gateway)(nil)

// Force posts a manual override with an empty body. Non-2xx responses wrap
// pkghttp.ErrUnexpectedStatus.
func (g *Gateway) Force(ctx context.Context, side models.OrderSide) error {
	err := g.client.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method: pkghttp.MethodPost,
		URL:    g.base + "/api/force/" + url.PathEscape(string(side)),
	}, nil)
	if err != nil {
		return fmt.Errorf("force %s: %w", side, err)
	}
	return nil
}

func (g *Gateway) BaseURL() string { return g.base }
