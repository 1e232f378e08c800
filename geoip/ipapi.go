package geoip

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"devicetracker/models"
)

// ipAPIFields is the field list requested from ip-api.com.
const ipAPIFields = "status,message,country,regionName,city,lat,lon,timezone,isp,query"

// ErrEmptyIP is returned when there is nothing to look up.
var ErrEmptyIP = errors.New("empty ip")

type httpStatusError struct {
	status int
	body   string
}

func (e httpStatusError) Error() string {
	if e.body == "" {
		return fmt.Sprintf("geolocation API returned status %d", e.status)
	}
	return fmt.Sprintf("geolocation API returned status %d: %s", e.status, e.body)
}

// IPAPIClient queries an ip-api.com compatible JSON endpoint.
type IPAPIClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewIPAPIClient builds a client for baseURL ("http://ip-api.com/json/").
func NewIPAPIClient(baseURL string, timeout time.Duration) *IPAPIClient {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &IPAPIClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *IPAPIClient) Lookup(ctx context.Context, ip string) (models.Geolocation, error) {
	ip = strings.TrimSpace(ip)
	if ip == "" {
		return models.Geolocation{}, ErrEmptyIP
	}

	u := c.baseURL + url.PathEscape(ip) + "?fields=" + ipAPIFields

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return models.Geolocation{}, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.Geolocation{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return models.Geolocation{}, httpStatusError{status: resp.StatusCode, body: strings.TrimSpace(string(body))}
	}

	var geo models.Geolocation
	if err := json.NewDecoder(resp.Body).Decode(&geo); err != nil {
		return models.Geolocation{}, fmt.Errorf("decode geolocation: %w", err)
	}

	// ip-api reports lookup errors (private range, reserved range, ...) with 200 + status=fail
	if geo.Status != models.GeoStatusSuccess {
		msg := geo.Message
		if msg == "" {
			msg = "status " + geo.Status
		}
		return models.Geolocation{}, fmt.Errorf("geolocation failed for %s: %s", ip, msg)
	}
	return geo, nil
}
