package proof

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"golang.org/x/sync/errgroup"

	"github.com/luca-patrignani/zk-holdem/zk/circuit"
)

const (
	DealingPKFile = "dealing.pk"
	DealingVKFile = "dealing.vk"
	RevealPKFile  = "reveal.pk"
	RevealVKFile  = "reveal.vk"
)

// Keys holds the compiled circuits and their Groth16 keys.
// Proving keys are nil when only verifying keys were loaded.
type Keys struct {
	DealingCCS constraint.ConstraintSystem
	RevealCCS  constraint.ConstraintSystem
	DealingPK  groth16.ProvingKey
	DealingVK  groth16.VerifyingKey
	RevealPK   groth16.ProvingKey
	RevealVK   groth16.VerifyingKey
}

// Setup compiles both circuits and runs a fresh Groth16 setup for each, in parallel.
// The result is only suitable for testing and local games: whoever ran it
// knows the toxic waste.
func Setup() (*Keys, error) {
	k := &Keys{}
	g := new(errgroup.Group)
	g.Go(func() error {
		ccs, pk, vk, err := setup(circuit.NewDealingCircuit())
		if err != nil {
			return fmt.Errorf("dealing circuit: %w", err)
		}
		k.DealingCCS, k.DealingPK, k.DealingVK = ccs, pk, vk
		return nil
	})
	g.Go(func() error {
		ccs, pk, vk, err := setup(circuit.NewRevealCircuit())
		if err != nil {
			return fmt.Errorf("reveal circuit: %w", err)
		}
		k.RevealCCS, k.RevealPK, k.RevealVK = ccs, pk, vk
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return k, nil
}

func setup(c frontend.Circuit) (constraint.ConstraintSystem, groth16.ProvingKey, groth16.VerifyingKey, error) {
	ccs, err := circuit.Compile(c)
	if err != nil {
		return nil, nil, nil, err
	}
	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("groth16 setup: %w", err)
	}
	return ccs, pk, vk, nil
}

// Save writes the four key files into dir, creating it if needed.
func (k *Keys) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	files := []struct {
		name string
		key  io.WriterTo
	}{
		{DealingPKFile, k.DealingPK},
		{DealingVKFile, k.DealingVK},
		{RevealPKFile, k.RevealPK},
		{RevealVKFile, k.RevealVK},
	}
	for _, f := range files {
		if f.key == nil {
			return fmt.Errorf("missing %s", f.name)
		}
		if err := writeKey(filepath.Join(dir, f.name), f.key); err != nil {
			return err
		}
	}
	return nil
}

func writeKey(path string, key io.WriterTo) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if _, err := key.WriteTo(w); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// LoadKeys recompiles both circuits and reads the keys saved by Save.
// With provingKeys false only the verifying keys are read.
func LoadKeys(dir string, provingKeys bool) (*Keys, error) {
	k := &Keys{}
	var err error
	if k.DealingCCS, err = circuit.Compile(circuit.NewDealingCircuit()); err != nil {
		return nil, err
	}
	if k.RevealCCS, err = circuit.Compile(circuit.NewRevealCircuit()); err != nil {
		return nil, err
	}
	k.DealingVK = groth16.NewVerifyingKey(circuit.Curve)
	k.RevealVK = groth16.NewVerifyingKey(circuit.Curve)
	files := []struct {
		name string
		key  io.ReaderFrom
	}{
		{DealingVKFile, k.DealingVK},
		{RevealVKFile, k.RevealVK},
	}
	if provingKeys {
		k.DealingPK = groth16.NewProvingKey(circuit.Curve)
		k.RevealPK = groth16.NewProvingKey(circuit.Curve)
		files = append(files, []struct {
			name string
			key  io.ReaderFrom
		}{
			{DealingPKFile, k.DealingPK},
			{RevealPKFile, k.RevealPK},
		}...)
	}
	for _, f := range files {
		if err := readKey(filepath.Join(dir, f.name), f.key); err != nil {
			return nil, err
		}
	}
	return k, nil
}

func readKey(path string, key io.ReaderFrom) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := key.ReadFrom(bufio.NewReader(f)); err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	return nil
}

// Params returns the serialized verifying keys.
func (k *Keys) Params() (Params, error) {
	var p Params
	var err error
	if p.DealingVK, err = serialize(k.DealingVK); err != nil {
		return p, err
	}
	if p.RevealVK, err = serialize(k.RevealVK); err != nil {
		return p, err
	}
	return p, nil
}

func serialize(key io.WriterTo) ([]byte, error) {
	if key == nil {
		return nil, fmt.Errorf("missing verifying key")
	}
	var buf bytes.Buffer
	if _, err := key.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
