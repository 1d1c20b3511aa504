package fibonacci

import "context"

// multiplyMatrices sets dest = m1 × m2, choosing the classic product for
// small operands and Strassen-Winograd once the largest entry exceeds
// strassenThreshold bits. dest must not alias m1 or m2.
func multiplyMatrices(ctx context.Context, dest, m1, m2 *matrix, state *matrixState, inParallel bool, strassenThreshold int) error {
	if maxBitLenTwoMatrices(m1, m2) <= strassenThreshold {
		return multiplyMatrix2x2(ctx, dest, m1, m2, state, inParallel)
	}
	return multiplyMatrixStrassen(ctx, dest, m1, m2, state, inParallel)
}

// multiplyMatrix2x2 is the classic product with 8 multiplications.
func multiplyMatrix2x2(ctx context.Context, dest, m1, m2 *matrix, state *matrixState, inParallel bool) error {
	tasks := []mulTask{
		{state.p1, m1.a, m2.a},
		{state.p2, m1.b, m2.c},
		{state.p3, m1.a, m2.b},
		{state.p4, m1.b, m2.d},
		{state.p5, m1.c, m2.a},
		{state.p6, m1.d, m2.c},
		{state.p7, m1.c, m2.b},
		{state.p8, m1.d, m2.d},
	}
	if err := runMulTasks(ctx, tasks, inParallel); err != nil {
		return err
	}
	dest.a.Add(state.p1, state.p2)
	dest.b.Add(state.p3, state.p4)
	dest.c.Add(state.p5, state.p6)
	dest.d.Add(state.p7, state.p8)
	return nil
}

// multiplyMatrixStrassen is the Winograd form of Strassen's product: 7
// multiplications and 15 additions.
func multiplyMatrixStrassen(ctx context.Context, dest, m1, m2 *matrix, state *matrixState, inParallel bool) error {
	s1, s2, s3, s4 := state.s1, state.s2, state.s3, state.s4
	s5, s6, s7, s8 := state.s5, state.s6, state.s7, state.s8

	s1.Add(m1.c, m1.d) // A21 + A22
	s2.Sub(s1, m1.a)   // S1 - A11
	s3.Sub(m1.a, m1.c) // A11 - A21
	s4.Sub(m1.b, s2)   // A12 - S2
	s5.Sub(m2.b, m2.a) // B12 - B11
	s6.Sub(m2.d, s5)   // B22 - S5
	s7.Sub(m2.d, m2.b) // B22 - B12
	s8.Sub(s6, m2.c)   // S6 - B21

	tasks := []mulTask{
		{state.p1, s2, s6},
		{state.p2, m1.a, m2.a},
		{state.p3, m1.b, m2.c},
		{state.p4, s3, s7},
		{state.p5, s1, s5},
		{state.p6, s4, m2.d},
		{state.p7, m1.d, s8},
	}
	if err := runMulTasks(ctx, tasks, inParallel); err != nil {
		return err
	}

	u1, u2 := state.t1, state.t2
	u1.Add(state.p1, state.p2)
	u2.Add(u1, state.p4)

	dest.a.Add(state.p2, state.p3)
	dest.b.Add(u1, state.p5)
	dest.b.Add(dest.b, state.p6)
	dest.c.Sub(u2, state.p7)
	dest.d.Add(u2, state.p5)
	return nil
}

// squareSymmetricMatrix squares a matrix with b == c using 3 squarings and
// one product:
//
//	[a b]²   [a²+b²    b(a+d)]
//	[b d]  = [b(a+d)   b²+d² ]
//
// Every power of Q is symmetric.
func squareSymmetricMatrix(ctx context.Context, dest, mat *matrix, state *matrixState, inParallel bool) error {
	a2, b2, d2 := state.t1, state.t2, state.t3
	bAd, ad := state.t4, state.t5
	ad.Add(mat.a, mat.d)

	tasks := []mulTask{
		{a2, mat.a, mat.a},
		{b2, mat.b, mat.b},
		{d2, mat.d, mat.d},
		{bAd, mat.b, ad},
	}
	if err := runMulTasks(ctx, tasks, inParallel); err != nil {
		return err
	}

	dest.a.Add(a2, b2)
	dest.b.Set(bAd)
	dest.c.Set(bAd)
	dest.d.Add(b2, d2)
	return nil
}

func maxBitLenMatrix(m *matrix) int {
	return max(m.a.BitLen(), m.b.BitLen(), m.c.BitLen(), m.d.BitLen())
}

func maxBitLenTwoMatrices(m1, m2 *matrix) int {
	return max(maxBitLenMatrix(m1), maxBitLenMatrix(m2))
}
