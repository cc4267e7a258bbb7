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

package eventlog

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

const (
	dirPerms  = 0o755
	filePerms = 0o644
)

// FS is the durable byte store the event log is written to. Names are
// relative to the store root.
type FS interface {
	MkdirAll() error
	ReadFile(name string) ([]byte, error)
	// WriteFile replaces name with data.
	WriteFile(name string, data []byte) error
	AppendFile(name string, data []byte) error
	// ReadDir lists file names in the root, sorted.
	ReadDir() ([]string, error)
	Remove(name string) error
}

// OSFS stores partitions as files in one directory.
type OSFS struct {
	root string
}

// NewOSFS returns an FS rooted at dir. The directory is created on first write.
func NewOSFS(dir string) *OSFS {
	return &OSFS{root: dir}
}

// Root reports the directory backing the store.
func (o *OSFS) Root() string {
	return o.root
}

func (o *OSFS) MkdirAll() error {
	return os.MkdirAll(o.root, dirPerms)
}

func (o *OSFS) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(filepath.Join(o.root, name))
}

// WriteFile writes to a temporary file and renames it over name so readers
// never observe a half-written partition.
func (o *OSFS) WriteFile(name string, data []byte) error {
	if err := o.MkdirAll(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(o.root, "."+name+".*")
	if err != nil {
		return err
	}

	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)

		return err
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}

	if err := os.Chmod(tmpName, filePerms); err != nil {
		_ = os.Remove(tmpName)
		return err
	}

	return os.Rename(tmpName, filepath.Join(o.root, name))
}

func (o *OSFS) AppendFile(name string, data []byte) error {
	if err := o.MkdirAll(); err != nil {
		return err
	}

	f, err := os.OpenFile(filepath.Join(o.root, name), os.O_CREATE|os.O_APPEND|os.O_WRONLY, filePerms)
	if err != nil {
		return err
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}

	return f.Close()
}

// ReadDir returns regular file names; a missing root is an empty listing.
func (o *OSFS) ReadDir() ([]string, error) {
	entries, err := os.ReadDir(o.root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", o.root, err)
	}

	names := make([]string, 0, len(entries))

	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}

	sort.Strings(names)

	return names, nil
}

func (o *OSFS) Remove(name string) error {
	return os.Remove(filepath.Join(o.root, name))
}
