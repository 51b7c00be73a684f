// Package circuit holds the gnark constraint systems for dealing and revealing
// hole cards, together with the witnesses that satisfy them.
package circuit

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
)

// Curve is the pairing curve of every proof in this module.
const Curve = ecc.BLS12_381

// Compile builds the R1CS of c over the curve's scalar field.
func Compile(c frontend.Circuit) (constraint.ConstraintSystem, error) {
	ccs, err := frontend.Compile(Curve.ScalarField(), r1cs.NewBuilder, c)
	if err != nil {
		return nil, fmt.Errorf("compiling circuit: %w", err)
	}
	return ccs, nil
}
