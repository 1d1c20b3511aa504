//go:build gmp

package fibonacci

import (
	"context"
	"fmt"
	"testing"
)

func TestGMPMatrixPower_MatchesMatrix(t *testing.T) {
	t.Parallel()
	gmpEval := &GMPMatrixPower{}
	ctx := context.Background()

	for _, n := range []uint64{0, 1, 2, 3, 10, 20, 50, 93, 94, 100, 1000, 4097} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			t.Parallel()
			got, err := gmpEval.EvaluateCore(ctx, nil, n, Options{})
			if err != nil {
				t.Fatalf("EvaluateCore(%d) error = %v", n, err)
			}
			want, _ := EvaluateMatrixPower(ctx, n)
			if got.Value.Cmp(want.Value) != 0 {
				t.Errorf("EvaluateCore(%d) = %s, want %s", n, got.Value, want.Value)
			}
		})
	}
}

func TestGMPMatrixPower_Cancel(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (&GMPMatrixPower{}).EvaluateCore(ctx, nil, 1000, Options{}); err == nil {
		t.Error("expected an error for a canceled context")
	}
}

func TestGMPMatrixPower_Registered(t *testing.T) {
	t.Parallel()
	if !GlobalFactory().Has("matrix-gmp") {
		t.Error("matrix-gmp should be registered in the global factory")
	}
}
