package protocol

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"

	"go.dedis.ch/kyber/v4"
	"go.dedis.ch/kyber/v4/sign/schnorr"
	"go.dedis.ch/kyber/v4/suites"
	"go.dedis.ch/kyber/v4/util/key"
)

var suite suites.Suite = suites.MustFind("Ed25519")

var (
	ErrMissingSignature = errors.New("missing signature")
	ErrBadSignature     = errors.New("bad signature")
)

// Envelope is the unit the transport moves. The signature covers every other field.
// Seq numbers the envelopes of one sender; zero means unsequenced.
type Envelope struct {
	From      Identity        `json:"from"`
	To        Identity        `json:"to"`
	Seq       uint64          `json:"seq,omitempty"`
	Kind      Kind            `json:"kind"`
	Payload   json.RawMessage `json:"payload"`
	Signature []byte          `json:"sig,omitempty"`
}

// serialize returns the JSON form of the envelope with the signature cleared.
func (e *Envelope) serialize() ([]byte, error) {
	tmp := *e
	tmp.Signature = nil
	return json.Marshal(tmp)
}

// KeyPair is an actor's signing key.
type KeyPair struct {
	Private kyber.Scalar
	Public  kyber.Point
}

// NewKeyPair draws a fresh key from the suite's random stream.
func NewKeyPair() KeyPair {
	kp := key.NewKeyPair(suite)
	return KeyPair{Private: kp.Private, Public: kp.Public}
}

// KeyPairFromSeed derives a key deterministically, for tests and simulations.
func KeyPairFromSeed(seed []byte) KeyPair {
	priv := suite.Scalar().Pick(suite.XOF(seed))
	return KeyPair{Private: priv, Public: suite.Point().Mul(priv, nil)}
}

func (k KeyPair) Identity() Identity {
	return IdentityOf(k.Public)
}

func IdentityOf(pub kyber.Point) Identity {
	b, err := pub.MarshalBinary()
	if err != nil {
		panic(err)
	}
	return Identity(hex.EncodeToString(b))
}

// PublicKey parses the point an identity encodes.
func (id Identity) PublicKey() (kyber.Point, error) {
	b, err := hex.DecodeString(string(id))
	if err != nil {
		return nil, fmt.Errorf("identity %q: %w", id, err)
	}
	p := suite.Point()
	if err := p.UnmarshalBinary(b); err != nil {
		return nil, fmt.Errorf("identity %q: %w", id, err)
	}
	return p, nil
}

// Short is a display form of the identity.
func (id Identity) Short() string {
	if len(id) > 8 {
		return string(id[:8])
	}
	return string(id)
}

// Seal encodes m and signs it on behalf of kp without a sequence number.
// Nodes drop unsequenced envelopes; they talk through a Sealer.
func Seal(kp KeyPair, to Identity, m Message) (Envelope, error) {
	return seal(kp, to, 0, m)
}

// Sealer seals the envelopes of one key with increasing sequence numbers.
// Starting from the current time in nanoseconds keeps the numbers growing
// across restarts. It is safe for concurrent use.
type Sealer struct {
	kp  KeyPair
	seq atomic.Uint64
}

func NewSealer(kp KeyPair, start uint64) *Sealer {
	s := &Sealer{kp: kp}
	s.seq.Store(start)
	return s
}

func (s *Sealer) Identity() Identity { return s.kp.Identity() }

// Seal signs m with the next sequence number.
func (s *Sealer) Seal(to Identity, m Message) (Envelope, error) {
	return seal(s.kp, to, s.seq.Add(1), m)
}

func seal(kp KeyPair, to Identity, seq uint64, m Message) (Envelope, error) {
	payload, err := Encode(m)
	if err != nil {
		return Envelope{}, err
	}
	e := Envelope{From: kp.Identity(), To: to, Seq: seq, Kind: m.Kind(), Payload: payload}
	if err := e.Sign(kp); err != nil {
		return Envelope{}, err
	}
	return e, nil
}

func (e *Envelope) Sign(kp KeyPair) error {
	b, err := e.serialize()
	if err != nil {
		return err
	}
	sig, err := schnorr.Sign(suite, kp.Private, b)
	if err != nil {
		return err
	}
	e.Signature = sig
	return nil
}

// Verify checks the signature against the sender's identity.
func (e *Envelope) Verify() error {
	if len(e.Signature) == 0 {
		return ErrMissingSignature
	}
	pub, err := e.From.PublicKey()
	if err != nil {
		return err
	}
	b, err := e.serialize()
	if err != nil {
		return err
	}
	if err := schnorr.Verify(suite, pub, b, e.Signature); err != nil {
		return fmt.Errorf("%w: %v", ErrBadSignature, err)
	}
	return nil
}

// Open verifies the envelope and decodes its message.
func Open(e Envelope) (Message, error) {
	if err := e.Verify(); err != nil {
		return nil, err
	}
	return Decode(e.Kind, e.Payload)
}
