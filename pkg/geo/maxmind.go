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
	"errors"
	"fmt"
	"net"

	"github.com/oschwald/maxminddb-golang"

	"github.com/carverauto/beaconhub/pkg/models"
)

type mmdbReader interface {
	Lookup(ip net.IP, result any) error
	Close() error
}

type cityRecord struct {
	City struct {
		Names map[string]string `maxminddb:"names"`
	} `maxminddb:"city"`
	Country struct {
		ISOCode string            `maxminddb:"iso_code"`
		Names   map[string]string `maxminddb:"names"`
	} `maxminddb:"country"`
	Location struct {
		Latitude  float64 `maxminddb:"latitude"`
		Longitude float64 `maxminddb:"longitude"`
	} `maxminddb:"location"`
}

type asnRecord struct {
	Organization string `maxminddb:"autonomous_system_organization"`
}

// MaxMindLocator answers lookups from local GeoLite2/GeoIP2 databases. The
// City database is required; the ASN database, when present, supplies the ISP.
type MaxMindLocator struct {
	city mmdbReader
	asn  mmdbReader
}

// NewMaxMindLocator opens the City database at cityPath and, if asnPath is
// not empty, the ASN database.
func NewMaxMindLocator(cityPath, asnPath string) (*MaxMindLocator, error) {
	city, err := maxminddb.Open(cityPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open city database %s: %w", cityPath, err)
	}

	l := &MaxMindLocator{city: city}

	if asnPath != "" {
		asn, err := maxminddb.Open(asnPath)
		if err != nil {
			_ = city.Close()
			return nil, fmt.Errorf("failed to open ASN database %s: %w", asnPath, err)
		}

		l.asn = asn
	}

	return l, nil
}

// Locate implements Locator.
func (l *MaxMindLocator) Locate(_ context.Context, ip net.IP) (models.LocationInfo, error) {
	if l == nil || l.city == nil {
		return models.LocationInfo{}, errNoReader
	}

	var rec cityRecord
	if err := l.city.Lookup(ip, &rec); err != nil {
		return models.LocationInfo{}, fmt.Errorf("city lookup for %s: %w", ip, err)
	}

	info := models.LocationInfo{
		City:    rec.City.Names["en"],
		Country: rec.Country.ISOCode,
		Lat:     rec.Location.Latitude,
		Lon:     rec.Location.Longitude,
	}

	if info.Country == "" {
		info.Country = rec.Country.Names["en"]
	}

	if l.asn != nil {
		var asn asnRecord
		if err := l.asn.Lookup(ip, &asn); err == nil {
			info.ISP = asn.Organization
		}
	}

	return info, nil
}

// Close releases both database readers.
func (l *MaxMindLocator) Close() error {
	var errs []error

	if l.city != nil {
		errs = append(errs, l.city.Close())
	}

	if l.asn != nil {
		errs = append(errs, l.asn.Close())
	}

	return errors.Join(errs...)
}
