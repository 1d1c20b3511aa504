// Command fibeval evaluates Fibonacci numbers with the closed form, matrix
// exponentiation or the memoized recurrence, and cross-checks the backends.
package main

import (
	"context"
	"os"

	"github.com/agbru/fibeval/internal/app"
)

func main() {
	os.Exit(app.Main(context.Background()))
}
