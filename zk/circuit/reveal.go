package circuit

import "github.com/consensys/gnark/frontend"

// RevealCircuit proves that public card values open the published commitments.
type RevealCircuit struct {
	Commitments [2][32]frontend.Variable `gnark:",public"`
	Values      [2]frontend.Variable     `gnark:",public"`

	Blindings [2]frontend.Variable
	Nonces    [2]frontend.Variable
}

func NewRevealCircuit() *RevealCircuit {
	return &RevealCircuit{}
}

func (c *RevealCircuit) Define(api frontend.API) error {
	for i := 0; i < 2; i++ {
		assertCardRange(api, c.Values[i])
		if err := assertOpening(api, c.Commitments[i][:], c.Nonces[i], c.Values[i], c.Blindings[i]); err != nil {
			return err
		}
	}
	return nil
}
