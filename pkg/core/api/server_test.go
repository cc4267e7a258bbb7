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

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	srHttp "github.com/carverauto/beaconhub/pkg/http"
	"github.com/carverauto/beaconhub/pkg/logger"
	"github.com/carverauto/beaconhub/pkg/models"
)

const (
	testUser     = "admin"
	testPassword = "s3cret"
)

var fixedNow = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

type apiFixture struct {
	server  *APIServer
	devices *MockDeviceService
	dir     string
}

func newAPIFixture(t *testing.T, opts ...func(*APIServer)) *apiFixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	devices := NewMockDeviceService(ctrl)
	dir := t.TempDir()

	authz, err := NewBasicAuthorizer(models.AuthConfig{Username: testUser, Password: testPassword})
	require.NoError(t, err)

	base := []func(*APIServer){
		WithDeviceService(devices),
		WithAuthorizer(authz),
		WithCaptureDir(dir),
		WithClock(func() time.Time { return fixedNow }),
		WithHostStats(func(context.Context) (*HostStats, error) {
			return &HostStats{CPUPercent: 12.5, MemoryTotal: 1024, MemoryUsed: 512, MemoryPercent: 50, UptimeSeconds: 60}, nil
		}),
	}

	server := NewAPIServer(models.CORSConfig{AllowedOrigins: []string{"*"}}, logger.NewTestLogger(), append(base, opts...)...)

	return &apiFixture{server: server, devices: devices, dir: dir}
}

func (f *apiFixture) do(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rr, req)

	return rr
}

func authed(req *http.Request) *http.Request {
	req.SetBasicAuth(testUser, testPassword)

	return req
}

func TestHealthz(t *testing.T) {
	f := newAPIFixture(t)

	rr := f.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", rr.Body.String())
}

func TestTrack(t *testing.T) {
	f := newAPIFixture(t)

	f.devices.EXPECT().
		Ingest(gomock.Any(), "203.0.113.5", "test-agent", gomock.Any()).
		DoAndReturn(func(ctx context.Context, addr, _ string, b models.Beacon) (models.DeviceRecord, error) {
			require.NotNil(t, b.Battery)
			assert.InDelta(t, 0.5, b.Battery.Level, 0.0001)
			assert.NoError(t, ctx.Err())

			return models.DefaultDeviceRecord(addr), nil
		})

	req := httptest.NewRequest(http.MethodPost, "/api/track", strings.NewReader(`{"battery":{"level":0.5,"charging":true}}`))
	req.RemoteAddr = "203.0.113.5:51234"
	req.Header.Set("User-Agent", "test-agent")

	rr := f.do(req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp TrackResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "203.0.113.5", resp.Identity)
}

func TestTrackMalformedBodyIsEmptyBeacon(t *testing.T) {
	f := newAPIFixture(t)

	f.devices.EXPECT().
		Ingest(gomock.Any(), "198.51.100.7", gomock.Any(), models.Beacon{}).
		Return(models.DefaultDeviceRecord("198.51.100.7"), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/track", strings.NewReader(`{not json`))
	req.RemoteAddr = "198.51.100.7:4000"

	rr := f.do(req)

	require.Equal(t, http.StatusOK, rr.Code)
}

func TestTrackAnswersOKWhenEventLogFails(t *testing.T) {
	f := newAPIFixture(t)

	f.devices.EXPECT().
		Ingest(gomock.Any(), "198.51.100.9", gomock.Any(), gomock.Any()).
		Return(models.DefaultDeviceRecord("198.51.100.9"), errors.New("event log: disk full"))

	req := httptest.NewRequest(http.MethodPost, "/api/track", strings.NewReader(`{}`))
	req.RemoteAddr = "198.51.100.9:4000"

	rr := f.do(req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp TrackResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "198.51.100.9", resp.Identity)
}

func TestTrackTrustProxy(t *testing.T) {
	f := newAPIFixture(t, WithTrustProxy(true))

	f.devices.EXPECT().
		Ingest(gomock.Any(), "192.0.2.10", gomock.Any(), gomock.Any()).
		Return(models.DefaultDeviceRecord("192.0.2.10"), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/track", strings.NewReader(`{}`))
	req.RemoteAddr = "10.0.0.1:80"
	req.Header.Set("X-Forwarded-For", "192.0.2.10, 10.0.0.1")

	rr := f.do(req)

	require.Equal(t, http.StatusOK, rr.Code)
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	f := newAPIFixture(t)

	for _, path := range []string{"/api/monitor", "/api/devices", "/api/history", "/api/camera-image", "/api/status"} {
		t.Run(path, func(t *testing.T) {
			rr := f.do(httptest.NewRequest(http.MethodGet, path, nil))

			require.Equal(t, http.StatusUnauthorized, rr.Code)
			assert.Equal(t, authRealm, rr.Header().Get("WWW-Authenticate"))

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.Equal(t, "Authentication required", resp.Message)
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/api/devices", nil)
	req.SetBasicAuth(testUser, "wrong")

	rr := f.do(req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestDefaultAuthorizerDeniesEverything(t *testing.T) {
	server := NewAPIServer(models.CORSConfig{}, logger.NewTestLogger())

	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, authed(httptest.NewRequest(http.MethodGet, "/api/devices", nil)))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestMonitor(t *testing.T) {
	t.Run("live record for ip query", func(t *testing.T) {
		f := newAPIFixture(t)

		rec := models.DefaultDeviceRecord("203.0.113.5")
		rec.Device.Browser = "Chrome 120.0"

		f.devices.EXPECT().GetDevice("203.0.113.5").Return(rec, true)

		rr := f.do(authed(httptest.NewRequest(http.MethodGet, "/api/monitor?ip=::ffff:203.0.113.5", nil)))

		require.Equal(t, http.StatusOK, rr.Code)

		var got models.DeviceRecord
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		assert.Equal(t, "Chrome 120.0", got.Device.Browser)
	})

	t.Run("default record for caller", func(t *testing.T) {
		f := newAPIFixture(t)

		f.devices.EXPECT().GetDevice("127.0.0.1").Return(models.DeviceRecord{}, false)

		req := authed(httptest.NewRequest(http.MethodGet, "/api/monitor", nil))
		req.RemoteAddr = "[::1]:9000"

		rr := f.do(req)

		require.Equal(t, http.StatusOK, rr.Code)

		var got models.DeviceRecord
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		assert.Equal(t, "127.0.0.1", got.Location.IP)
		assert.Equal(t, models.UnknownValue, got.Device.Model)
	})
}

func TestDevices(t *testing.T) {
	f := newAPIFixture(t)

	f.devices.EXPECT().ListDevices().Return(nil)

	rr := f.do(authed(httptest.NewRequest(http.MethodGet, "/api/devices", nil)))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())
}

func TestHistory(t *testing.T) {
	f := newAPIFixture(t)

	entries := []models.LogEntry{{ID: "a", Kind: models.LogEntryBeacon, Identity: "203.0.113.5", Timestamp: fixedNow}}

	f.devices.EXPECT().
		History(gomock.Any(), "203.0.113.5", models.LogEntryBeacon, 5).
		Return(entries, nil)

	rr := f.do(authed(httptest.NewRequest(http.MethodGet, "/api/history?ip=203.0.113.5&kind=beacon&limit=5", nil)))

	require.Equal(t, http.StatusOK, rr.Code)

	var got []models.LogEntry
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)
}

func TestHistoryErrors(t *testing.T) {
	tests := []struct {
		name  string
		query string
		setup func(*MockDeviceService)
		code  int
	}{
		{name: "bad limit", query: "limit=abc", code: http.StatusBadRequest},
		{name: "negative limit", query: "limit=-1", code: http.StatusBadRequest},
		{name: "bad kind", query: "kind=video", code: http.StatusBadRequest},
		{
			name:  "read failure",
			query: "",
			setup: func(m *MockDeviceService) {
				m.EXPECT().History(gomock.Any(), "", models.LogEntryKind(""), 10).Return(nil, errors.New("disk gone"))
			},
			code: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAPIFixture(t)
			if tt.setup != nil {
				tt.setup(f.devices)
			}

			rr := f.do(authed(httptest.NewRequest(http.MethodGet, "/api/history?"+tt.query, nil)))

			assert.Equal(t, tt.code, rr.Code)
		})
	}
}

func newImageUpload(t *testing.T, payload []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer

	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(imageFormField, "snap.jpg")
	require.NoError(t, err)

	_, err = part.Write(payload)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/camera-update", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return req
}

func TestCameraUpdateAndImage(t *testing.T) {
	f := newAPIFixture(t)

	payload := []byte{0xff, 0xd8, 0xff, 0xe0, 'j', 'p', 'g'}
	wantName := "127.0.0.1_2025-03-14T09-26-53.000Z.jpg"

	f.devices.EXPECT().AttachImage(gomock.Any(), "127.0.0.1", wantName).Return(true)

	req := newImageUpload(t, payload)
	req.RemoteAddr = "[::1]:5000"

	rr := f.do(req)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp CameraUpdateResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.True(t, resp.Attached)
	assert.Equal(t, wantName, resp.Filename)

	stored, err := os.ReadFile(filepath.Join(f.dir, wantName))
	require.NoError(t, err)
	assert.Equal(t, payload, stored)

	rec := models.DefaultDeviceRecord("127.0.0.1")
	rec.LastImageRef = wantName

	f.devices.EXPECT().GetDevice("127.0.0.1").Return(rec, true)

	rr = f.do(authed(httptest.NewRequest(http.MethodGet, "/api/camera-image?ip=::1", nil)))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "image/jpeg", rr.Header().Get("Content-Type"))
	assert.Equal(t, payload, rr.Body.Bytes())
}

func TestCameraUpdateAttachesAfterClientDisconnect(t *testing.T) {
	f := newAPIFixture(t)

	f.devices.EXPECT().
		AttachImage(gomock.Any(), "127.0.0.1", gomock.Any()).
		DoAndReturn(func(ctx context.Context, _, _ string) bool {
			assert.NoError(t, ctx.Err())

			return true
		})

	reqCtx, cancel := context.WithCancel(context.Background())
	cancel()

	req := newImageUpload(t, []byte{0xff, 0xd8, 0xff}).WithContext(reqCtx)
	req.RemoteAddr = "127.0.0.1:5000"

	rr := f.do(req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp CameraUpdateResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Attached)
}

func TestCameraUpdateWithoutImage(t *testing.T) {
	f := newAPIFixture(t)

	var body bytes.Buffer

	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("note", "no file"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/camera-update", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rr := f.do(req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCameraImageMissing(t *testing.T) {
	f := newAPIFixture(t)

	f.devices.EXPECT().GetDevice("203.0.113.5").Return(models.DefaultDeviceRecord("203.0.113.5"), true)

	rr := f.do(authed(httptest.NewRequest(http.MethodGet, "/api/camera-image?ip=203.0.113.5", nil)))

	require.Equal(t, http.StatusNotFound, rr.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "No image available", resp.Message)
}

func TestCaptureFilename(t *testing.T) {
	assert.Equal(t, "2001-db8--1_2025-03-14T09-26-53.000Z.jpg", captureFilename("2001:db8::1", fixedNow))
}

type fakeCache int

func (c fakeCache) Len() int { return int(c) }

func TestSystemStatus(t *testing.T) {
	f := newAPIFixture(t, WithGeoCache(fakeCache(3)))

	f.devices.EXPECT().ListDevices().Return([]models.DeviceRecord{
		models.DefaultDeviceRecord("a"),
		models.DefaultDeviceRecord("b"),
	})

	rr := f.do(authed(httptest.NewRequest(http.MethodGet, "/api/status", nil)))

	require.Equal(t, http.StatusOK, rr.Code)

	var status SystemStatus
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &status))
	assert.Equal(t, 2, status.Devices)
	assert.Equal(t, 3, status.GeoCacheEntries)
	require.NotNil(t, status.Host)
	assert.InDelta(t, 12.5, status.Host.CPUPercent, 0.001)
	assert.Empty(t, status.HostError)
}

func TestSystemStatusHostError(t *testing.T) {
	f := newAPIFixture(t, WithHostStats(func(context.Context) (*HostStats, error) {
		return nil, errors.New("no procfs")
	}))

	f.devices.EXPECT().ListDevices().Return(nil)

	rr := f.do(authed(httptest.NewRequest(http.MethodGet, "/api/status", nil)))

	require.Equal(t, http.StatusOK, rr.Code)

	var status SystemStatus
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &status))
	assert.Nil(t, status.Host)
	assert.Equal(t, "no procfs", status.HostError)
}

func TestRateLimitedAPI(t *testing.T) {
	limiter := srHttp.NewRateLimiter(1, time.Minute, func(r *http.Request) string {
		return srHttp.ClientAddress(r, false)
	})

	f := newAPIFixture(t, WithRateLimiter(limiter))

	f.devices.EXPECT().
		Ingest(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(models.DefaultDeviceRecord("192.0.2.1"), nil)

	first := f.do(httptest.NewRequest(http.MethodPost, "/api/track", strings.NewReader(`{}`)))
	require.Equal(t, http.StatusOK, first.Code)

	second := f.do(httptest.NewRequest(http.MethodPost, "/api/track", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)

	health := f.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, health.Code)
}

func TestShutdownBeforeStart(t *testing.T) {
	f := newAPIFixture(t)

	require.NoError(t, f.server.Shutdown(context.Background()))
}
