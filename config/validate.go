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

package config

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var logLevels = []string{"debug", "info", "warn", "warning", "error", "critical"}

// NewValidate returns the validator used for bindings. Field errors name
// the configuration key rather than the Go field, and the tag "loglevel"
// accepts a level name in any case.
func NewValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get(TagName), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("loglevel", func(fl validator.FieldLevel) bool {
		level := strings.ToLower(fl.Field().String())
		for _, l := range logLevels {
			if level == l {
				return true
			}
		}
		return false
	})
	return v
}

func describeFieldError(fe validator.FieldError) error {
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("is required")
	case "oneof":
		return fmt.Errorf("must be one of [%s], got %v", fe.Param(), fe.Value())
	case "min", "gte":
		return fmt.Errorf("must be at least %s, got %v", fe.Param(), fe.Value())
	case "max", "lte":
		return fmt.Errorf("must be at most %s, got %v", fe.Param(), fe.Value())
	case "url":
		return fmt.Errorf("must be a URL, got %q", fe.Value())
	case "loglevel":
		return fmt.Errorf("must be one of [%s], got %v", strings.Join(logLevels, " "), fe.Value())
	default:
		return fmt.Errorf("failed %q validation, got %v", fe.Tag(), fe.Value())
	}
}
