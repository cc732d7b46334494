package engine

import (
	"context"
	"testing"

	"mercator-hq/jobhook/pkg/gateway"
)

// BenchmarkEvaluate_Grayscale benchmarks a job that matches no rule
func BenchmarkEvaluate_Grayscale(b *testing.B) {
	ev, err := New(nil, WithLogger(testLogger()))
	if err != nil {
		b.Fatal(err)
	}
	snap := analyzed(false, 3, 0.3)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = ev.Evaluate(ctx, snap, gateway.NewRecorder(gateway.Confirm))
	}
}

// BenchmarkEvaluate_ColorRedirect benchmarks a job that runs every action
func BenchmarkEvaluate_ColorRedirect(b *testing.B) {
	ev, err := New(nil, WithLogger(testLogger()))
	if err != nil {
		b.Fatal(err)
	}
	snap := analyzed(true, 30, 4.5)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = ev.Evaluate(ctx, snap, gateway.NewRecorder(gateway.Confirm))
	}
}
