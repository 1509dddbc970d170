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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/dropzone/pkg/rules"
)

func TestHCLDecode(t *testing.T) {
	content := `
settings {
  counter_format = "00"
  retry {
    max_retries = 4
    backoff_multiplier = 1.5
  }
  delete {
    skip_hidden = false
  }
}

rule "invoices" {
  pattern     = "invoice_*.pdf"
  action      = "move"
  destination = "/archive"
}

rule "photos" {
  pattern = "*.{jpg,png}"
  enabled = false

  step {
    action          = "rename"
    rename_template = "{date}_{filename}"
  }

  step {
    action      = "copy"
    destination = "/backup"
    enabled     = false
  }
}
`
	path := filepath.Join(t.TempDir(), "dropzone.hcl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	doc, err := LoadDocument(testContext(t), path)
	require.NoError(t, err)

	assert.Equal(t, "00", doc.Settings.CounterFormat)
	assert.Equal(t, 4, doc.Settings.Retry.MaxRetries)
	assert.Equal(t, 1.5, doc.Settings.Retry.BackoffMultiplier)
	assert.Equal(t, 1000, doc.Settings.Retry.InitialDelayMs, "omitted attributes keep defaults")
	assert.False(t, doc.Settings.Delete.SkipHidden)
	assert.True(t, doc.Settings.Delete.SkipSystem)

	require.Len(t, doc.Rules, 2)
	assert.Equal(t, rules.Rule{
		Name:        "invoices",
		Pattern:     "invoice_*.pdf",
		Enabled:     true,
		Action:      rules.ActionMove,
		Destination: "/archive",
	}, doc.Rules[0])

	photos := doc.Rules[1]
	assert.False(t, photos.Enabled)
	require.Len(t, photos.Steps, 2)
	assert.Equal(t, rules.Step{Action: rules.ActionRename, RenameTemplate: "{date}_{filename}", Enabled: true}, photos.Steps[0])
	assert.False(t, photos.Steps[1].Enabled)
}

func TestHCLDecodeErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "syntax", content: "rule \"x\" {"},
		{name: "missing_pattern", content: "rule \"x\" {\n action = \"delete\"\n}\n"},
		{name: "unknown_attribute", content: "bogus = 1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := (&HCLCodec{}).Decode(testContext(t), []byte(tt.content), "x.hcl")
			assert.Error(t, err)
		})
	}
}

func TestCodecRoundTrip(t *testing.T) {
	doc := &Document{
		Settings: DefaultSettings(),
		Rules: []rules.Rule{
			{Name: "invoices", Pattern: "invoice_*.pdf", Enabled: true, Action: rules.ActionMove, Destination: "/archive"},
			{Name: "photos", Pattern: "*.jpg", Enabled: false, Steps: []rules.Step{
				{Action: rules.ActionRename, RenameTemplate: "{date:yyyyMMdd}_{filename}", Enabled: true},
				{Action: rules.ActionDelete, Enabled: false},
			}},
		},
	}
	doc.Settings.WatchPath = "/downloads"
	doc.Settings.Retry.BackoffMultiplier = 1.5

	for _, name := range []string{"dropzone.yaml", "dropzone.json", "dropzone.hcl"} {
		t.Run(filepath.Ext(name)[1:], func(t *testing.T) {
			ctx := testContext(t)
			path := filepath.Join(t.TempDir(), name)

			data, err := EncodeDocument(ctx, path, doc)
			require.NoError(t, err)
			require.NoError(t, os.WriteFile(path, data, 0644))

			got, err := LoadDocument(ctx, path)
			require.NoError(t, err)
			assert.Equal(t, doc, got)
		})
	}
}
