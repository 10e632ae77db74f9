package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrNoResults means the provider answered but found nothing for the address.
var ErrNoResults = errors.New("geo: no results for address")

// Client talks to a Yandex-compatible geocoding endpoint.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		HTTPClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

func (c *Client) Geocode(ctx context.Context, address string) (lng, lat float64, err error) {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return 0, 0, fmt.Errorf("geo: bad base url: %w", err)
	}
	q := u.Query()
	q.Set("geocode", address)
	q.Set("apikey", c.APIKey)
	q.Set("format", "json")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return 0, 0, fmt.Errorf("geo: create request: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("geo: do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, 0, fmt.Errorf("geo: unexpected status %s", resp.Status)
	}

	var payload struct {
		Response struct {
			GeoObjectCollection struct {
				FeatureMember []struct {
					GeoObject struct {
						Point struct {
							Pos string `json:"pos"`
						} `json:"Point"`
					} `json:"GeoObject"`
				} `json:"featureMember"`
			} `json:"GeoObjectCollection"`
		} `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, 0, fmt.Errorf("geo: decode response: %w", err)
	}

	members := payload.Response.GeoObjectCollection.FeatureMember
	if len(members) == 0 {
		return 0, 0, ErrNoResults
	}

	// Point.pos is "lng lat", space separated.
	fields := strings.Fields(members[0].GeoObject.Point.Pos)
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("geo: malformed point %q", members[0].GeoObject.Point.Pos)
	}
	lng, err = strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("geo: malformed longitude %q", fields[0])
	}
	lat, err = strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("geo: malformed latitude %q", fields[1])
	}
	return lng, lat, nil
}
