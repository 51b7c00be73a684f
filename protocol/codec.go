package protocol

import (
	"encoding/json"
	"fmt"
)

// Encode returns the JSON payload of m.
func Encode(m Message) ([]byte, error) {
	return json.Marshal(m)
}

// Decode parses a payload of the given kind.
func Decode(kind Kind, payload []byte) (Message, error) {
	var m Message
	var err error
	switch kind {
	case KindDealCards:
		m, err = decode[DealCards](payload)
	case KindCommunityCards:
		m, err = decode[CommunityCards](payload)
	case KindRequestReveal:
		m, err = decode[RequestReveal](payload)
	case KindYourTurn:
		m, err = decode[YourTurn](payload)
	case KindGameResult:
		m, err = decode[GameResult](payload)
	case KindRefund:
		m, err = decode[Refund](payload)
	case KindJoinTable:
		m, err = decode[JoinTable](payload)
	case KindCardsReceived:
		m, err = decode[CardsReceived](payload)
	case KindBetAction:
		m, err = decode[BetAction](payload)
	case KindRevealCards:
		m, err = decode[RevealCards](payload)
	case KindLeaveTable:
		m, err = decode[LeaveTable](payload)
	case KindTriggerTimeoutCheck:
		m, err = decode[TriggerTimeoutCheck](payload)
	default:
		return nil, fmt.Errorf("unknown message kind %q", kind)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", kind, err)
	}
	return m, nil
}

func decode[T Message](payload []byte) (T, error) {
	var v T
	err := json.Unmarshal(payload, &v)
	return v, err
}
