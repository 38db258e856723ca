package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func jsonLogger(buf *bytes.Buffer) *Logger {
	return New(Config{Level: slog.LevelDebug, Format: "json", Component: ComponentPayoff, Output: buf})
}

func lastRecord(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[len(lines)-1]), &rec); err != nil {
		t.Fatalf("invalid JSON log line %q: %v", lines[len(lines)-1], err)
	}
	return rec
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLoggerAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := jsonLogger(&buf)

	logger.Info("simulated")
	if got := lastRecord(t, &buf)[FieldComponent]; got != ComponentPayoff {
		t.Errorf("component = %v, want %s", got, ComponentPayoff)
	}

	logger.WithComponent(ComponentWorker).With(FieldDebtID, "debt_1").Warn("stuck")
	rec := lastRecord(t, &buf)
	if rec[FieldComponent] != ComponentWorker || rec[FieldDebtID] != "debt_1" {
		t.Errorf("unexpected record %v", rec)
	}
}

func TestStructuredLogger(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(jsonLogger(&buf))
	ctx := context.Background()

	sl.LogPlanComputed(ctx, "both", "250.00", 41, true)
	rec := lastRecord(t, &buf)
	if rec[FieldStrategy] != "both" || rec[FieldExtraPayment] != "250.00" || rec[FieldCacheHit] != true {
		t.Errorf("unexpected plan record %v", rec)
	}
	if rec[FieldTotalMonths] != float64(41) || rec[FieldOperation] != OpSimulate {
		t.Errorf("unexpected plan record %v", rec)
	}

	sl.LogDebtChanged(ctx, OpPayment, "debt_1", "Card", "120.00")
	rec = lastRecord(t, &buf)
	if rec[FieldDebtName] != "Card" || rec[FieldBalance] != "120.00" || rec[FieldOperation] != OpPayment {
		t.Errorf("unexpected debt record %v", rec)
	}

	sl.LogError(ctx, "export failed", errors.New("quota"), OpExport, nil)
	rec = lastRecord(t, &buf)
	if rec["level"] != "ERROR" || rec[FieldError] != "quota" || rec[FieldOperation] != OpExport {
		t.Errorf("unexpected error record %v", rec)
	}
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	logger := jsonLogger(&buf)

	if got := FromContext(WithLogger(context.Background(), logger)); got != logger {
		t.Error("expected the stored logger")
	}
	if FromContext(context.Background()) == nil {
		t.Error("expected a fallback logger")
	}
}

func TestDiscard(t *testing.T) {
	Discard().Error("dropped")
}
