package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	if GetJobID(ctx) != "" || GetUser(ctx) != "" {
		t.Fatal("expected empty values on bare context")
	}

	ctx = WithJobID(ctx, "job-1")
	ctx = WithUser(ctx, "jdoe")
	ctx = WithPrinter(ctx, "Front Office")
	ctx = WithEvaluationID(ctx, "eval-9")

	if GetJobID(ctx) != "job-1" {
		t.Errorf("GetJobID = %q", GetJobID(ctx))
	}
	if GetUser(ctx) != "jdoe" {
		t.Errorf("GetUser = %q", GetUser(ctx))
	}
	if GetPrinter(ctx) != "Front Office" {
		t.Errorf("GetPrinter = %q", GetPrinter(ctx))
	}
	if GetEvaluationID(ctx) != "eval-9" {
		t.Errorf("GetEvaluationID = %q", GetEvaluationID(ctx))
	}

	attrs := contextFields(ctx)
	if len(attrs) != 4 || attrs[0].Key != "evaluation_id" {
		t.Errorf("unexpected context fields: %v", attrs)
	}
}

func TestContextLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	base := slog.New(&contextHandler{next: slog.NewTextHandler(buf, nil)})

	ctx := WithJobID(context.Background(), "job-3")
	cl := NewContextLogger(base, ctx).With("component", "replay")
	cl.Info("evaluated")

	out := buf.String()
	if !strings.Contains(out, "job_id=job-3") || !strings.Contains(out, "component=replay") {
		t.Errorf("expected job and component fields: %s", out)
	}
}
