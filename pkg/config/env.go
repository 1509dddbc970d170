// Copyright 2025 walteh LLC
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
	"strings"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"gitlab.com/tozd/go/errors"
)

// EnvPrefix starts every environment override, e.g. DROPZONE_RETRY_MAX_RETRIES
const EnvPrefix = "DROPZONE_"

// EnvConfigPath overrides the document location
const EnvConfigPath = EnvPrefix + "CONFIG"

var envSections = []string{"retry", "delete"}

// envKey maps DROPZONE_RETRY_MAX_RETRIES to retry.max_retries and
// DROPZONE_COUNTER_FORMAT to counter_format.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	if key == "config" {
		return ""
	}
	for _, section := range envSections {
		if rest, ok := strings.CutPrefix(key, section+"_"); ok {
			return section + "." + rest
		}
	}
	return key
}

// 🌱 ApplyEnv overlays DROPZONE_* environment variables onto s
func ApplyEnv(s Settings) (Settings, error) {
	k := koanf.New(".")
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return s, errors.Errorf("loading environment variables: %w", err)
	}

	if len(k.Keys()) == 0 {
		return s, nil
	}

	if err := k.UnmarshalWithConf("", &s, koanf.UnmarshalConf{Tag: "yaml"}); err != nil {
		return s, errors.Errorf("applying environment variables: %w", err)
	}

	if err := s.Validate(); err != nil {
		return s, errors.Errorf("validating environment overrides: %w", err)
	}
	return s, nil
}
