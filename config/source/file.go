// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"rivaas.dev/courier/config/codec"
)

// File loads configuration from a file or from in-memory content.
type File struct {
	path     string
	data     []byte
	decoder  codec.Decoder
	optional bool
}

// FileOption configures a [File].
type FileOption func(*File)

// Optional makes a missing file load as an empty map instead of failing.
func Optional() FileOption {
	return func(f *File) {
		f.optional = true
	}
}

// NewFile reads path on every Load and decodes it with decoder.
func NewFile(path string, decoder codec.Decoder, opts ...FileOption) *File {
	f := &File{path: path, decoder: decoder}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// NewFileContent decodes data with decoder.
func NewFileContent(data []byte, decoder codec.Decoder) *File {
	return &File{data: data, decoder: decoder}
}

// Path returns the file path, or "" for in-memory content.
func (f *File) Path() string { return f.path }

// Load reads and decodes the document.
func (f *File) Load(context.Context) (map[string]any, error) {
	data := f.data
	if f.path != "" {
		var err error
		data, err = os.ReadFile(f.path)
		if err != nil {
			if f.optional && errors.Is(err, fs.ErrNotExist) {
				return map[string]any{}, nil
			}
			return nil, fmt.Errorf("failed to read file: %w", err)
		}
	}

	var conf map[string]any
	if err := f.decoder.Decode(data, &conf); err != nil {
		return nil, fmt.Errorf("failed to decode file: %w", err)
	}
	if conf == nil {
		conf = map[string]any{}
	}
	return conf, nil
}
