package journal

import (
	"encoding/json"
	"fmt"

	"github.com/wilhg/redux/pkg/store"
)

// Codec encodes and decodes state for snapshots.
type Codec[S any] interface {
	Encode(state S) ([]byte, error)
	Decode(data []byte) (S, error)
}

// JSONCodec encodes state with encoding/json.
type JSONCodec[S any] struct{}

func (JSONCodec[S]) Encode(state S) ([]byte, error) { return json.Marshal(state) }

func (JSONCodec[S]) Decode(data []byte) (S, error) {
	var s S
	err := json.Unmarshal(data, &s)
	return s, err
}

// Encoder turns an action into its journaled payload.
type Encoder func(action store.Action) (json.RawMessage, error)

// Decoder rebuilds an action from its journaled type and payload.
type Decoder func(actionType string, payload json.RawMessage) (store.Action, error)

// EncodeJSON marshals the action itself.
func EncodeJSON(action store.Action) (json.RawMessage, error) {
	return json.Marshal(action)
}

// Registry maps action types to payload decoders, giving a Decoder for a
// sealed action set.
type Registry map[string]func(payload json.RawMessage) (store.Action, error)

// Decode implements Decoder.
func (r Registry) Decode(actionType string, payload json.RawMessage) (store.Action, error) {
	decode, ok := r[actionType]
	if !ok {
		return nil, fmt.Errorf("journal: no decoder for action type %q", actionType)
	}
	a, err := decode(payload)
	if err != nil {
		return nil, fmt.Errorf("journal: decode %s: %w", actionType, err)
	}
	return a, nil
}

// As decodes a payload into a value of action type A.
func As[A store.Action]() func(json.RawMessage) (store.Action, error) {
	return func(payload json.RawMessage) (store.Action, error) {
		var a A
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &a); err != nil {
				return nil, err
			}
		}
		return a, nil
	}
}
