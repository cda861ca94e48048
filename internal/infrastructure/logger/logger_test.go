package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestComponent(t *testing.T) {
	prev := Get()
	defer Set(prev)

	var buf bytes.Buffer
	Set(zerolog.New(&buf))

	l := Component("invoice.usecase")
	l.Info().Str("invoice_id", "inv-1").Msg("created")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected a json line, got %q: %v", buf.String(), err)
	}
	if line["component"] != "invoice.usecase" || line["invoice_id"] != "inv-1" || line["message"] != "created" {
		t.Fatalf("unexpected log line: %v", line)
	}
}
