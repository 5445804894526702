package logx

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"all", zerolog.TraceLevel},
		{"trace", zerolog.TraceLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{" error ", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"none", zerolog.Disabled},
		{"off", zerolog.Disabled},
		{"bogus", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q): got %v want %v", tt.in, got, tt.want)
		}
	}
}

func TestCorrelationID(t *testing.T) {
	ctx := context.Background()
	if got := CorrelationID(ctx); got != "" {
		t.Fatalf("expected empty id got %q", got)
	}
	ctx, id := WithCorrelationID(ctx, "")
	if id == "" {
		t.Fatal("expected generated id")
	}
	if got := CorrelationID(ctx); got != id {
		t.Fatalf("expected %q got %q", id, got)
	}
	ctx, id = WithCorrelationID(ctx, "fixed")
	if id != "fixed" || CorrelationID(ctx) != "fixed" {
		t.Fatalf("expected fixed id got %q", CorrelationID(ctx))
	}
}
