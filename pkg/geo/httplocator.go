/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/carverauto/beaconhub/pkg/models"
)

const ipAPIFields = "status,message,country,countryCode,city,lat,lon,isp"

type ipAPIResponse struct {
	Status      string  `json:"status"`
	Message     string  `json:"message"`
	Country     string  `json:"country"`
	CountryCode string  `json:"countryCode"`
	City        string  `json:"city"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	ISP         string  `json:"isp"`
}

// HTTPLocator queries an ip-api.com compatible JSON endpoint.
type HTTPLocator struct {
	baseURL string
	client  *http.Client
}

// NewHTTPLocator builds a locator for baseURL; timeout bounds every request.
func NewHTTPLocator(baseURL string, timeout time.Duration) *HTTPLocator {
	return &HTTPLocator{
		baseURL: strings.TrimSuffix(baseURL, "/") + "/",
		client:  &http.Client{Timeout: timeout},
	}
}

// Locate implements Locator.
func (h *HTTPLocator) Locate(ctx context.Context, ip net.IP) (models.LocationInfo, error) {
	endpoint := h.baseURL + url.PathEscape(ip.String()) + "?fields=" + ipAPIFields

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return models.LocationInfo{}, fmt.Errorf("failed to build lookup request: %w", err)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return models.LocationInfo{}, fmt.Errorf("lookup request for %s: %w", ip, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return models.LocationInfo{}, fmt.Errorf("%w: status %d", errLookupFailed, resp.StatusCode)
	}

	var body ipAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return models.LocationInfo{}, fmt.Errorf("failed to decode lookup response: %w", err)
	}

	if body.Status != "success" {
		return models.LocationInfo{}, fmt.Errorf("%w: %s", errLookupFailed, body.Message)
	}

	country := body.CountryCode
	if country == "" {
		country = body.Country
	}

	return models.LocationInfo{
		City:    body.City,
		Country: country,
		Lat:     body.Lat,
		Lon:     body.Lon,
		ISP:     body.ISP,
	}, nil
}
