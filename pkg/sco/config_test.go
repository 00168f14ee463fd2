// ABOUTME: Tests for stream configuration
// ABOUTME: Covers presets and validation failures
package sco

import (
	"errors"
	"testing"
)

func TestPresetsValidate(t *testing.T) {
	for name, cfg := range map[string]Config{"msbc": MSBCConfig(), "cvsd": CVSDConfig()} {
		if err := cfg.Validate(); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}

	m := MSBCConfig()
	if m.Format != FormatHeaderSynchronized || m.FrameBytes != 60 || m.FrameSamples != 120 || m.ZeroRunLength != 20 {
		t.Errorf("unexpected msbc preset %+v", m)
	}
	if m.MinScale != 0.75 || m.MaxScale != 1.2 {
		t.Errorf("unexpected scale clamp [%g, %g]", m.MinScale, m.MaxScale)
	}

	c := CVSDConfig()
	if c.Format != FormatFixedSize || c.FrameBytes != 120 || c.FrameSamples != 60 {
		t.Errorf("unexpected cvsd preset %+v", c)
	}
	if c.ZeroRunLength != DefaultZeroRunLength || m.ZeroRunLength != DefaultZeroRunLength {
		t.Errorf("presets must use a zero run of %d, got msbc %d cvsd %d",
			DefaultZeroRunLength, m.ZeroRunLength, c.ZeroRunLength)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		base   func() Config
		mutate func(*Config)
	}{
		{"unknown format", MSBCConfig, func(c *Config) { c.Format = FrameFormat(7) }},
		{"h2 frame size", MSBCConfig, func(c *Config) { c.FrameBytes = 59 }},
		{"fixed frame size", CVSDConfig, func(c *Config) { c.FrameBytes = 0 }},
		{"negative zero run", MSBCConfig, func(c *Config) { c.ZeroRunLength = -1 }},
		{"zero run beyond frame", MSBCConfig, func(c *Config) { c.ZeroRunLength = 61 }},
		{"plc overlap", MSBCConfig, func(c *Config) { c.Overlap = 200 }},
		{"scale clamp", CVSDConfig, func(c *Config) { c.MaxScale = 0.5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestFrameFormatString(t *testing.T) {
	if FormatHeaderSynchronized.String() != "h2" || FormatFixedSize.String() != "fixed" {
		t.Error("unexpected format names")
	}
	if FrameFormat(9).String() != "FrameFormat(9)" {
		t.Errorf("unexpected unknown format name %q", FrameFormat(9).String())
	}
}

func TestResultOutcome(t *testing.T) {
	tests := []struct {
		status   Status
		expected Outcome
	}{
		{StatusSuccess, OutcomeDecoded},
		{StatusInsufficientHeader, OutcomeInsufficientData},
		{StatusInsufficientBody, OutcomeInsufficientData},
		{StatusNoSyncword, OutcomeNoHeader},
		{StatusChecksumMismatch, OutcomeChecksumMismatch},
		{StatusInvalidParameters, OutcomePrimitiveFaulted},
	}
	for _, tt := range tests {
		t.Run(tt.status.String(), func(t *testing.T) {
			if got := (Result{Status: tt.status}).Outcome(); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}
