package newton

import "github.com/san-kum/vnrsolve/internal/buffer"

// Cubic is f(x) = x³ - 2x² + 1, whose roots are 1 and (1 ± √5)/2. It is
// the reference problem for checking a solver configuration.
type Cubic struct{}

func CubicValue(x float64) float64 { return x*x*x - 2*x*x + 1 }

func CubicDerivative(x float64) float64 { return 3*x*x - 4*x }

func (Cubic) Evaluate(x, f, df *buffer.Buffer) error {
	if err := checkOperands(x, f, df); err != nil {
		return err
	}
	xd, fd, dfd := x.Data(), f.Data(), df.Data()
	for i, v := range xd {
		fd[i] = CubicValue(v)
		dfd[i] = CubicDerivative(v)
	}
	return nil
}
