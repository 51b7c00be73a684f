package circuit

import (
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/hash/mimc"
)

// assertCardRange constrains v to [0, 52) and returns its 6 little-endian bits.
// 52 is 0b110100, so v < 52 exactly when b5·b4·b3 = 0 and b5·b4·b2 = 0.
func assertCardRange(api frontend.API, v frontend.Variable) []frontend.Variable {
	bits := api.ToBinary(v, 6)
	high := api.Mul(bits[5], bits[4])
	api.AssertIsEqual(api.Mul(high, bits[3]), 0)
	api.AssertIsEqual(api.Mul(high, bits[2]), 0)
	return bits
}

// assertNotEqual constrains a != b: a-b must have an inverse.
func assertNotEqual(api frontend.API, a, b frontend.Variable) {
	api.Inverse(api.Sub(a, b))
}

// fromBytes recombines big-endian byte inputs into one field element.
func fromBytes(api frontend.API, bs []frontend.Variable) frontend.Variable {
	var acc frontend.Variable = 0
	for _, b := range bs {
		acc = api.Add(api.Mul(acc, 256), b)
	}
	return acc
}

func hash(api frontend.API, vs ...frontend.Variable) (frontend.Variable, error) {
	h, err := mimc.NewMiMC(api)
	if err != nil {
		return nil, err
	}
	h.Write(vs...)
	return h.Sum(), nil
}

// merkleRoot folds a sibling path up from leaf. dirs[i] = 1 when the current
// node is the right child at level i.
func merkleRoot(api frontend.API, leaf frontend.Variable, siblings []frontend.Variable, dirs []frontend.Variable) (frontend.Variable, error) {
	cur := leaf
	for i, sib := range siblings {
		left := api.Select(dirs[i], sib, cur)
		right := api.Select(dirs[i], cur, sib)
		var err error
		if cur, err = hash(api, left, right); err != nil {
			return nil, err
		}
	}
	return cur, nil
}

// assertOpening constrains MiMC(nonce, value, blinding) to equal a byte-encoded commitment.
func assertOpening(api frontend.API, commitment []frontend.Variable, nonce, value, blinding frontend.Variable) error {
	c, err := hash(api, nonce, value, blinding)
	if err != nil {
		return err
	}
	api.AssertIsEqual(c, fromBytes(api, commitment))
	api.AssertIsDifferent(blinding, 0)
	return nil
}
