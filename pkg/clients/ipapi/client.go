package ipapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/iftarsharebd/iftarmap/internal/geo"
)

// Client resolves approximate coordinates for an IP address.
type Client interface {
	Lookup(ctx context.Context, ip string) (geo.Point, error)
}

// APIClient is a resty-backed client for ip-api.com compatible endpoints.
type APIClient struct {
	httpClient *resty.Client
}

// NewClient builds a lookup client against baseURL.
func NewClient(baseURL string) *APIClient {
	restyClient := resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetHeader("Accept", "application/json").
		SetTimeout(10 * time.Second)

	return &APIClient{httpClient: restyClient}
}

type lookupResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// Lookup queries /json/{ip}. Private or unknown addresses fail with the API message.
func (c *APIClient) Lookup(ctx context.Context, ip string) (geo.Point, error) {
	if ip == "" {
		return geo.Point{}, errors.New("ip must not be empty")
	}

	result := new(lookupResponse)
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("fields", "status,message,lat,lon").
		SetResult(result).
		Get(fmt.Sprintf("json/%s", ip))
	if err != nil {
		return geo.Point{}, fmt.Errorf("ip lookup: %w", err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		return geo.Point{}, fmt.Errorf("ip lookup api error: code=%d", resp.StatusCode())
	}

	if result.Status != "success" {
		return geo.Point{}, fmt.Errorf("ip lookup failed: %s", result.Message)
	}

	return geo.Point{Latitude: result.Lat, Longitude: result.Lon}, nil
}

// Locator adapts a Client to geo.Locator for a single request's client IP.
type Locator struct {
	Client Client
	IP     string
}

// Locate resolves the IP; any failure is reported as geo.ErrLocationDenied.
func (l Locator) Locate(ctx context.Context) (geo.Point, error) {
	if l.Client == nil {
		return geo.Point{}, geo.ErrLocationDenied
	}
	p, err := l.Client.Lookup(ctx, l.IP)
	if err != nil {
		return geo.Point{}, fmt.Errorf("%w: %v", geo.ErrLocationDenied, err)
	}
	return p, nil
}
