// Package feed delivers data-change notifications from the upstream data
// pipeline. Sources are polled over HTTP, pushed over a websocket or read
// from a kafka topic; all of them hand notifications to a Handler.
package feed

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jask/kgview/internal/weighing"
)

// Source keys.
const (
	KeyContainers     = "containers"
	KeyAreas          = "areas"
	KeyWeighings      = "weighings"
	KeyWeighingsDelta = "weighingsDelta"
)

// ErrUnknownSource is returned for a key no source is configured for.
var ErrUnknownSource = errors.New("unknown feed source")

// Notification is one data change: the source key and its raw payload.
type Notification struct {
	Key  string          `json:"key"`
	Data json.RawMessage `json:"data"`
}

// Handler receives notifications. Sources call it from their own goroutines.
type Handler func(Notification)

// WeighingPayload is a full weighing snapshot, or a delta when LastDelta is
// set.
type WeighingPayload struct {
	Data       []weighing.Record
	LastChange *string
	LastDelta  *string
}

// IsDelta reports whether the payload builds on a previous change.
func (p WeighingPayload) IsDelta() bool { return p.LastDelta != nil }

type wirePayload struct {
	Data       []weighing.Record `json:"data"`
	LastChange any               `json:"last_change"`
	LastDelta  any               `json:"last_delta"`
}

// DecodeWeighings decodes a weighing payload. Change tokens may be strings
// or numbers on the wire; both are kept in canonical string form.
func DecodeWeighings(raw json.RawMessage) (WeighingPayload, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var w wirePayload
	if err := dec.Decode(&w); err != nil {
		return WeighingPayload{}, fmt.Errorf("decode weighings: %w", err)
	}
	return WeighingPayload{
		Data:       w.Data,
		LastChange: token(w.LastChange),
		LastDelta:  token(w.LastDelta),
	}, nil
}

func token(v any) *string {
	s, ok := weighing.Canonical(v)
	if !ok {
		return nil
	}
	return &s
}
