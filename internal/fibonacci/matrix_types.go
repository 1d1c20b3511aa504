package fibonacci

import (
	"math/big"
	"sync"
)

// matrix is a 2x2 matrix of big integers:
//
//	[ a b ]
//	[ c d ]
type matrix struct{ a, b, c, d *big.Int }

func newMatrix() *matrix {
	return &matrix{a: new(big.Int), b: new(big.Int), c: new(big.Int), d: new(big.Int)}
}

// Set deep-copies other into m.
func (m *matrix) Set(other *matrix) {
	m.a.Set(other.a)
	m.b.Set(other.b)
	m.c.Set(other.c)
	m.d.Set(other.d)
}

// SetIdentity sets m to [[1,0],[0,1]], which is Q⁰.
func (m *matrix) SetIdentity() {
	m.a.SetInt64(1)
	m.b.SetInt64(0)
	m.c.SetInt64(0)
	m.d.SetInt64(1)
}

// SetBaseQ sets m to the Fibonacci matrix Q = [[1,1],[1,0]]. Its k-th power
// is [[F(k+1), F(k)], [F(k), F(k-1)]].
func (m *matrix) SetBaseQ() {
	m.a.SetInt64(1)
	m.b.SetInt64(1)
	m.c.SetInt64(1)
	m.d.SetInt64(0)
}

// matrixState holds every big.Int used by one exponentiation so that the hot
// loop does not allocate.
type matrixState struct {
	res, p, tmp *matrix
	// Products of the 8-multiplication and Strassen-Winograd schemes.
	p1, p2, p3, p4, p5, p6, p7, p8 *big.Int
	// Sums and differences of the Strassen-Winograd scheme.
	s1, s2, s3, s4, s5, s6, s7, s8 *big.Int
	// Scratch values for symmetric squaring and result assembly.
	t1, t2, t3, t4, t5 *big.Int
}

// Reset prepares the state for a new exponentiation: res = I, p = Q.
func (s *matrixState) Reset() {
	s.res.SetIdentity()
	s.p.SetBaseQ()
}

func (s *matrixState) scalars() []*big.Int {
	return []*big.Int{
		s.p1, s.p2, s.p3, s.p4, s.p5, s.p6, s.p7, s.p8,
		s.s1, s.s2, s.s3, s.s4, s.s5, s.s6, s.s7, s.s8,
		s.t1, s.t2, s.t3, s.t4, s.t5,
	}
}

var matrixStatePool = sync.Pool{
	New: func() any {
		n := func() *big.Int { return new(big.Int) }
		return &matrixState{
			res: newMatrix(), p: newMatrix(), tmp: newMatrix(),
			p1: n(), p2: n(), p3: n(), p4: n(), p5: n(), p6: n(), p7: n(), p8: n(),
			s1: n(), s2: n(), s3: n(), s4: n(), s5: n(), s6: n(), s7: n(), s8: n(),
			t1: n(), t2: n(), t3: n(), t4: n(), t5: n(),
		}
	},
}

// acquireMatrixState takes a reset state from the pool. Release it with
// releaseMatrixState once the result has been copied out.
func acquireMatrixState() *matrixState {
	s := matrixStatePool.Get().(*matrixState)
	s.Reset()
	return s
}

// releaseMatrixState returns s to the pool unless one of its values grew
// beyond MaxPooledBitLen.
func releaseMatrixState(s *matrixState) {
	if s == nil {
		return
	}
	for _, z := range s.scalars() {
		if checkLimit(z) {
			return
		}
	}
	if checkMatrixLimit(s.res) || checkMatrixLimit(s.p) || checkMatrixLimit(s.tmp) {
		return
	}
	matrixStatePool.Put(s)
}

func checkMatrixLimit(m *matrix) bool {
	return checkLimit(m.a) || checkLimit(m.b) || checkLimit(m.c) || checkLimit(m.d)
}
