package uplink

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var ErrNoTarget = errors.New("uplink: no target url or page origin configured")

// ResolveTarget picks the socket URL. An explicit override wins; otherwise the
// URL is derived from the page origin, mapping https to wss and http to ws.
func ResolveTarget(override, origin, path string) (string, error) {
	if s := strings.TrimSpace(override); s != "" {
		u, err := url.Parse(s)
		if err != nil {
			return "", fmt.Errorf("parse uplink url: %w", err)
		}
		if u.Scheme != "ws" && u.Scheme != "wss" {
			return "", fmt.Errorf("uplink url must be ws:// or wss://, got %q", s)
		}
		return u.String(), nil
	}

	origin = strings.TrimSpace(origin)
	if origin == "" {
		return "", ErrNoTarget
	}
	u, err := url.Parse(origin)
	if err != nil {
		return "", fmt.Errorf("parse page origin: %w", err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("page origin %q has no host", origin)
	}

	scheme := "ws"
	switch u.Scheme {
	case "https", "wss":
		scheme = "wss"
	case "http", "ws", "":
	default:
		return "", fmt.Errorf("unsupported page origin scheme %q", u.Scheme)
	}
	if path == "" {
		path = "/ws"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return (&url.URL{Scheme: scheme, Host: u.Host, Path: path}).String(), nil
}

// HTTPOrigin maps a socket URL back to the matching http(s) origin.
func HTTPOrigin(socketURL string) (string, error) {
	u, err := url.Parse(socketURL)
	if err != nil {
		return "", fmt.Errorf("parse socket url: %w", err)
	}
	scheme := "http"
	if u.Scheme == "wss" || u.Scheme == "https" {
		scheme = "https"
	}
	return (&url.URL{Scheme: scheme, Host: u.Host}).String(), nil
}
