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
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/carverauto/beaconhub/pkg/ingest"
)

const (
	maxImageBytes     = 10 << 20
	imageFormField    = "image"
	captureTimeLayout = "2006-01-02T15-04-05.000Z"
)

var errNoCaptureDir = errors.New("capture directory not configured")

// cameraUpdate stores an uploaded snapshot and attaches it to the caller's record.
func (s *APIServer) cameraUpdate(w http.ResponseWriter, r *http.Request) {
	if s.devices == nil {
		writeError(w, "Device service not configured", http.StatusServiceUnavailable)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes)

	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		writeError(w, "Invalid image upload", http.StatusBadRequest)
		return
	}

	file, _, err := r.FormFile(imageFormField)
	if err != nil {
		writeError(w, "No image uploaded", http.StatusBadRequest)
		return
	}
	defer func() { _ = file.Close() }()

	identity := ingest.NormalizeAddress(s.clientAddress(r))
	filename := captureFilename(identity, s.nowFn())

	if err := s.saveCapture(filename, file); err != nil {
		s.logger.Error().Err(err).Str("identity", identity).Msg("Failed to store camera capture")
		writeError(w, "Failed to store image", http.StatusInternalServerError)

		return
	}

	// the image is on disk; record it even if the client has gone away
	attached := s.devices.AttachImage(context.WithoutCancel(r.Context()), identity, filename)

	s.logger.Debug().
		Str("identity", identity).
		Str("filename", filename).
		Bool("attached", attached).
		Msg("Camera capture stored")

	s.encodeJSONResponse(w, CameraUpdateResponse{
		Success:  true,
		Filename: filename,
		Attached: attached,
	})
}

// getCameraImage returns the most recent capture of a device.
func (s *APIServer) getCameraImage(w http.ResponseWriter, r *http.Request) {
	if s.devices == nil {
		writeError(w, "Device service not configured", http.StatusServiceUnavailable)
		return
	}

	record, ok := s.devices.GetDevice(s.queryIdentity(r))
	if !ok || record.LastImageRef == "" || s.captureDir == "" {
		writeError(w, "No image available", http.StatusNotFound)
		return
	}

	path := filepath.Join(s.captureDir, filepath.Base(record.LastImageRef))

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			writeError(w, "No image available", http.StatusNotFound)
			return
		}

		s.logger.Error().Err(err).Str("path", path).Msg("Failed to open camera capture")
		writeError(w, "Failed to read image", http.StatusInternalServerError)

		return
	}
	defer func() { _ = f.Close() }()

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "no-store")

	if _, err := io.Copy(w, f); err != nil {
		s.logger.Warn().Err(err).Str("path", path).Msg("Failed to send camera capture")
	}
}

func (s *APIServer) saveCapture(filename string, src io.Reader) error {
	if s.captureDir == "" {
		return errNoCaptureDir
	}

	if err := os.MkdirAll(s.captureDir, 0o755); err != nil {
		return fmt.Errorf("failed to create capture directory: %w", err)
	}

	dst, err := os.OpenFile(filepath.Join(s.captureDir, filename), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}

	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()

		return err
	}

	return dst.Close()
}

// captureFilename is <identity>_<UTC timestamp>.jpg with ':' made filesystem safe.
func captureFilename(identity string, at time.Time) string {
	safe := strings.NewReplacer(":", "-", "/", "-", "\\", "-").Replace(identity)

	return fmt.Sprintf("%s_%s.jpg", safe, at.UTC().Format(captureTimeLayout))
}
