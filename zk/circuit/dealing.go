package circuit

import (
	"github.com/consensys/gnark/frontend"

	"github.com/luca-patrignani/zk-holdem/zk/merkle"
)

// DealingCircuit proves that two hole cards were drawn from distinct positions of
// the committed deck and that the published commitments open to them.
type DealingCircuit struct {
	DeckRoot    [32]frontend.Variable    `gnark:",public"`
	Commitments [2][32]frontend.Variable `gnark:",public"`

	Positions [2]frontend.Variable
	Values    [2]frontend.Variable
	Paths     [2][merkle.Depth]frontend.Variable
	Blindings [2]frontend.Variable
	Nonces    [2]frontend.Variable
}

// NewDealingCircuit returns the circuit shape used for setup.
func NewDealingCircuit() *DealingCircuit {
	return &DealingCircuit{}
}

func (c *DealingCircuit) Define(api frontend.API) error {
	assertNotEqual(api, c.Positions[0], c.Positions[1])
	root := fromBytes(api, c.DeckRoot[:])

	for i := 0; i < 2; i++ {
		dirs := assertCardRange(api, c.Positions[i])
		assertCardRange(api, c.Values[i])

		leaf, err := hash(api, c.Positions[i], c.Values[i])
		if err != nil {
			return err
		}
		got, err := merkleRoot(api, leaf, c.Paths[i][:], dirs)
		if err != nil {
			return err
		}
		api.AssertIsEqual(got, root)

		if err := assertOpening(api, c.Commitments[i][:], c.Nonces[i], c.Values[i], c.Blindings[i]); err != nil {
			return err
		}
	}
	return nil
}
