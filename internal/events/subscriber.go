package events

import (
	"encoding/json"
	"fmt"
)

// Subscriber receives raw event payloads from the bus.
type Subscriber interface {
	// Subscribe delivers payloads for topic on the returned channel until
	// the returned cancel function is called.
	Subscribe(topic string) (<-chan []byte, func(), error)
	Close() error
}

// DecodeEnvelope parses a published payload. Payloads that are not
// envelopes (e.g. a bare JSON object sent with the nats CLI) are returned
// as the Data of an envelope with no ID.
func DecodeEnvelope(topic string, payload []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(payload, &env); err == nil && env.ID != "" && env.Data != nil {
		return &env, nil
	}
	if len(payload) > 0 && !json.Valid(payload) {
		return nil, fmt.Errorf("decoding %s event: invalid JSON", topic)
	}
	return &Envelope{Topic: topic, Data: payload}, nil
}

// DecodeInvalidation extracts the reason from a snapshot.invalidate payload.
// Empty or unparsable payloads still count as an invalidation.
func DecodeInvalidation(payload []byte) SnapshotInvalidate {
	var inv SnapshotInvalidate
	env, err := DecodeEnvelope(TopicSnapshotInvalidate, payload)
	if err != nil || len(env.Data) == 0 {
		return inv
	}
	_ = json.Unmarshal(env.Data, &inv)
	return inv
}
