package store

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/kbukum/statekit/errors"
)

// Envelope is the wire form of an action: {"type": "...", "payload": {...}}.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Codec decodes envelopes into registered action types.
type Codec struct {
	mu       sync.RWMutex
	decoders map[string]func(json.RawMessage) (Action, error)
}

// NewCodec creates an empty codec.
func NewCodec() *Codec {
	return &Codec{decoders: make(map[string]func(json.RawMessage) (Action, error))}
}

// Register adds a decoder for actionType.
func (c *Codec) Register(actionType string, decode func(payload json.RawMessage) (Action, error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.decoders[actionType] = decode
}

// RegisterJSON registers A under its own Type(), decoding the payload into a
// fresh A. A payload-less envelope decodes to the zero A.
func RegisterJSON[A Action](c *Codec) {
	var zero A
	c.Register(zero.Type(), func(payload json.RawMessage) (Action, error) {
		var a A
		if len(payload) == 0 {
			return a, nil
		}
		if err := json.Unmarshal(payload, &a); err != nil {
			return nil, errors.InvalidInput("payload", err.Error())
		}
		return a, nil
	})
}

// Types lists registered action types, sorted.
func (c *Codec) Types() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	types := make([]string, 0, len(c.decoders))
	for t := range c.decoders {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Decode turns an envelope into an action. Unregistered types fail with
// ErrUnknownAction.
func (c *Codec) Decode(env Envelope) (Action, error) {
	c.mu.RLock()
	decode, ok := c.decoders[env.Type]
	c.mu.RUnlock()
	if !ok {
		return nil, errors.UnknownAction(env.Type)
	}
	a, err := decode(env.Payload)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", env.Type, err)
	}
	return a, nil
}

// Encode wraps a into an envelope.
func Encode(a Action) (Envelope, error) {
	payload, err := json.Marshal(a)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Type: a.Type(), Payload: payload}, nil
}
