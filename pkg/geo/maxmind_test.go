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
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	fill   func(result any)
	err    error
	closed bool
}

func (f *fakeReader) Lookup(_ net.IP, result any) error {
	if f.err != nil {
		return f.err
	}

	f.fill(result)

	return nil
}

func (f *fakeReader) Close() error {
	f.closed = true
	return nil
}

func TestMaxMindLocatorLocate(t *testing.T) {
	city := &fakeReader{fill: func(result any) {
		rec := result.(*cityRecord)
		rec.City.Names = map[string]string{"en": "Berlin"}
		rec.Country.ISOCode = "DE"
		rec.Location.Latitude = 52.52
		rec.Location.Longitude = 13.40
	}}
	asn := &fakeReader{fill: func(result any) {
		result.(*asnRecord).Organization = "Example GmbH"
	}}

	l := &MaxMindLocator{city: city, asn: asn}

	got, err := l.Locate(context.Background(), net.ParseIP("203.0.113.5"))
	require.NoError(t, err)
	assert.Equal(t, "Berlin", got.City)
	assert.Equal(t, "DE", got.Country)
	assert.Equal(t, "Example GmbH", got.ISP)
	assert.True(t, got.Complete())

	require.NoError(t, l.Close())
	assert.True(t, city.closed)
	assert.True(t, asn.closed)
}

func TestMaxMindLocatorErrors(t *testing.T) {
	l := &MaxMindLocator{city: &fakeReader{err: errors.New("corrupt")}}

	_, err := l.Locate(context.Background(), net.ParseIP("203.0.113.5"))
	require.Error(t, err)

	var empty *MaxMindLocator
	_, err = empty.Locate(context.Background(), net.ParseIP("203.0.113.5"))
	require.ErrorIs(t, err, errNoReader)

	_, err = NewMaxMindLocator("/nonexistent/GeoLite2-City.mmdb", "")
	require.Error(t, err)
}

func TestMaxMindLocatorCountryNameFallback(t *testing.T) {
	city := &fakeReader{fill: func(result any) {
		rec := result.(*cityRecord)
		rec.City.Names = map[string]string{"en": "Oslo"}
		rec.Country.Names = map[string]string{"en": "Norway"}
	}}

	got, err := (&MaxMindLocator{city: city}).Locate(context.Background(), net.ParseIP("203.0.113.5"))
	require.NoError(t, err)
	assert.Equal(t, "Norway", got.Country)
	assert.Empty(t, got.ISP)
}
