package model

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestParamsEnvelopeRoundTrip(t *testing.T) {
	type payload struct {
		Coef []float64 `json:"coef"`
		Bias float64   `json:"bias"`
	}

	var buf bytes.Buffer
	in := payload{Coef: []float64{0.25, -4}, Bias: 1.5}
	if err := WriteParamsEnvelope(&buf, "demo", "1.0", in); err != nil {
		t.Fatalf("WriteParamsEnvelope() error = %v", err)
	}

	env, err := ReadParamsEnvelope(&buf, "demo")
	if err != nil {
		t.Fatalf("ReadParamsEnvelope() error = %v", err)
	}
	if env.Model != "demo" || env.FormatVersion != "1.0" {
		t.Errorf("envelope = %q/%q, want demo/1.0", env.Model, env.FormatVersion)
	}

	var out payload
	if err := json.Unmarshal(env.Params, &out); err != nil {
		t.Fatalf("Unmarshal(params) error = %v", err)
	}
	if out.Bias != in.Bias || len(out.Coef) != 2 || out.Coef[0] != in.Coef[0] || out.Coef[1] != in.Coef[1] {
		t.Errorf("params = %+v, want %+v", out, in)
	}
}

func TestReadParamsEnvelopeErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "model mismatch", input: `{"model": "other", "format_version": "1.0", "params": {}}`},
		{name: "malformed json", input: `{"model": `},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadParamsEnvelope(strings.NewReader(tt.input), "demo"); err == nil {
				t.Fatal("ReadParamsEnvelope() expected error")
			}
		})
	}
}

func TestWriteParamsEnvelopeUnencodableParams(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteParamsEnvelope(&buf, "demo", "1.0", make(chan int)); err == nil {
		t.Fatal("WriteParamsEnvelope() expected error for unencodable params")
	}
}
