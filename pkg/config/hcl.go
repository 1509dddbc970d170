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
	"context"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/dropzone/pkg/rules"
)

func init() {
	Register(&HCLCodec{})
}

// 🔧 HCLCodec implements the Codec interface for HCL files
type HCLCodec struct{}

// HCL schema; optional attributes are pointers so omitted keys keep defaults
type hclDocument struct {
	Settings *hclSettings `hcl:"settings,block"`
	Rules    []hclRule    `hcl:"rule,block"`
}

type hclSettings struct {
	CounterFormat *string    `hcl:"counter_format,optional"`
	WatchPath     *string    `hcl:"watch_path,optional"`
	Retry         *hclRetry  `hcl:"retry,block"`
	Delete        *hclDelete `hcl:"delete,block"`
}

type hclRetry struct {
	MaxRetries        *int     `hcl:"max_retries,optional"`
	InitialDelayMs    *int     `hcl:"initial_delay_ms,optional"`
	MaxDelayMs        *int     `hcl:"max_delay_ms,optional"`
	BackoffMultiplier *float64 `hcl:"backoff_multiplier,optional"`
	SkipTemporary     *bool    `hcl:"skip_temporary,optional"`
}

type hclDelete struct {
	SkipSystem    *bool  `hcl:"skip_system,optional"`
	SkipHidden    *bool  `hcl:"skip_hidden,optional"`
	MaxSizeBytes  *int64 `hcl:"max_size_bytes,optional"`
	UseRecycleBin *bool  `hcl:"use_recycle_bin,optional"`
}

type hclRule struct {
	Name           string    `hcl:"name,label"`
	Pattern        string    `hcl:"pattern"`
	Enabled        *bool     `hcl:"enabled,optional"`
	Action         string    `hcl:"action,optional"`
	Destination    string    `hcl:"destination,optional"`
	RenameTemplate string    `hcl:"rename_template,optional"`
	Steps          []hclStep `hcl:"step,block"`
}

type hclStep struct {
	Action         string `hcl:"action"`
	Destination    string `hcl:"destination,optional"`
	RenameTemplate string `hcl:"rename_template,optional"`
	Enabled        *bool  `hcl:"enabled,optional"`
}

// 🔍 CanParse checks if this codec can handle the given file
func (c *HCLCodec) CanParse(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".hcl")
}

// 📝 Decode parses the document from HCL
func (c *HCLCodec) Decode(ctx context.Context, data []byte, filename string) (*Document, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, filepath.Base(filename))
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	// Create evaluation context
	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{},
	}

	var raw hclDocument
	diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &raw)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}

	doc := DefaultDocument()
	if s := raw.Settings; s != nil {
		setIf(&doc.Settings.CounterFormat, s.CounterFormat)
		setIf(&doc.Settings.WatchPath, s.WatchPath)
		if r := s.Retry; r != nil {
			setIf(&doc.Settings.Retry.MaxRetries, r.MaxRetries)
			setIf(&doc.Settings.Retry.InitialDelayMs, r.InitialDelayMs)
			setIf(&doc.Settings.Retry.MaxDelayMs, r.MaxDelayMs)
			setIf(&doc.Settings.Retry.BackoffMultiplier, r.BackoffMultiplier)
			setIf(&doc.Settings.Retry.SkipTemporary, r.SkipTemporary)
		}
		if d := s.Delete; d != nil {
			setIf(&doc.Settings.Delete.SkipSystem, d.SkipSystem)
			setIf(&doc.Settings.Delete.SkipHidden, d.SkipHidden)
			setIf(&doc.Settings.Delete.MaxSizeBytes, d.MaxSizeBytes)
			setIf(&doc.Settings.Delete.UseRecycleBin, d.UseRecycleBin)
		}
	}

	for _, hr := range raw.Rules {
		r := rules.Rule{
			Name:           hr.Name,
			Pattern:        hr.Pattern,
			Enabled:        true,
			Action:         rules.ActionKind(hr.Action),
			Destination:    hr.Destination,
			RenameTemplate: hr.RenameTemplate,
		}
		setIf(&r.Enabled, hr.Enabled)
		for _, hs := range hr.Steps {
			step := rules.Step{
				Action:         rules.ActionKind(hs.Action),
				Destination:    hs.Destination,
				RenameTemplate: hs.RenameTemplate,
				Enabled:        true,
			}
			setIf(&step.Enabled, hs.Enabled)
			r.Steps = append(r.Steps, step)
		}
		doc.Rules = append(doc.Rules, r)
	}

	return doc, nil
}

// 💾 Encode renders the document as HCL
func (c *HCLCodec) Encode(ctx context.Context, doc *Document) ([]byte, error) {
	f := hclwrite.NewEmptyFile()
	root := f.Body()

	s := doc.Settings
	settings := root.AppendNewBlock("settings", nil).Body()
	settings.SetAttributeValue("counter_format", cty.StringVal(s.CounterFormat))
	if s.WatchPath != "" {
		settings.SetAttributeValue("watch_path", cty.StringVal(s.WatchPath))
	}

	retry := settings.AppendNewBlock("retry", nil).Body()
	retry.SetAttributeValue("max_retries", cty.NumberIntVal(int64(s.Retry.MaxRetries)))
	retry.SetAttributeValue("initial_delay_ms", cty.NumberIntVal(int64(s.Retry.InitialDelayMs)))
	retry.SetAttributeValue("max_delay_ms", cty.NumberIntVal(int64(s.Retry.MaxDelayMs)))
	retry.SetAttributeValue("backoff_multiplier", cty.NumberFloatVal(s.Retry.BackoffMultiplier))
	retry.SetAttributeValue("skip_temporary", cty.BoolVal(s.Retry.SkipTemporary))

	del := settings.AppendNewBlock("delete", nil).Body()
	del.SetAttributeValue("skip_system", cty.BoolVal(s.Delete.SkipSystem))
	del.SetAttributeValue("skip_hidden", cty.BoolVal(s.Delete.SkipHidden))
	del.SetAttributeValue("max_size_bytes", cty.NumberIntVal(s.Delete.MaxSizeBytes))
	del.SetAttributeValue("use_recycle_bin", cty.BoolVal(s.Delete.UseRecycleBin))

	for _, r := range doc.Rules {
		root.AppendNewline()
		body := root.AppendNewBlock("rule", []string{r.Name}).Body()
		body.SetAttributeValue("pattern", cty.StringVal(r.Pattern))
		body.SetAttributeValue("enabled", cty.BoolVal(r.Enabled))
		setStringAttr(body, "action", string(r.Action))
		setStringAttr(body, "destination", r.Destination)
		setStringAttr(body, "rename_template", r.RenameTemplate)

		for _, st := range r.Steps {
			step := body.AppendNewBlock("step", nil).Body()
			step.SetAttributeValue("action", cty.StringVal(string(st.Action)))
			setStringAttr(step, "destination", st.Destination)
			setStringAttr(step, "rename_template", st.RenameTemplate)
			step.SetAttributeValue("enabled", cty.BoolVal(st.Enabled))
		}
	}

	return f.Bytes(), nil
}

func setStringAttr(body *hclwrite.Body, name, value string) {
	if value != "" {
		body.SetAttributeValue(name, cty.StringVal(value))
	}
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
