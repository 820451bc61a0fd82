package application

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bnema/leasehold/internal/domain"
)

const discriminatorKey = "accountId"

type DecodeStatus string

const (
	DecodeOK                   DecodeStatus = "ok"
	DecodeAbsent               DecodeStatus = "absent"
	DecodeMalformed            DecodeStatus = "malformed"
	DecodeMissingDiscriminator DecodeStatus = "missing_discriminator"
)

type DecodeResult struct {
	Status   DecodeStatus
	Snapshot domain.Snapshot
	Err      error
}

func (r DecodeResult) OK() bool {
	return r.Status == DecodeOK
}

func EncodeSnapshot(snapshot domain.Snapshot) (string, error) {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return "", fmt.Errorf("encode session snapshot: %w", err)
	}
	return string(payload), nil
}

// DecodeSnapshot never fails: every problem with raw is reported through the
// result status. present is false when nothing was stored under the key.
func DecodeSnapshot(raw string, present bool) DecodeResult {
	if !present {
		return DecodeResult{Status: DecodeAbsent}
	}

	data := bytes.TrimSpace([]byte(raw))
	if bytes.Equal(data, []byte("null")) {
		return DecodeResult{Status: DecodeAbsent}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return DecodeResult{Status: DecodeMalformed, Err: fmt.Errorf("decode session snapshot: %w", err)}
	}
	if fields == nil {
		return DecodeResult{Status: DecodeMalformed, Err: errors.New("decode session snapshot: not an object")}
	}

	id, ok := fields[discriminatorKey]
	if !ok || bytes.Equal(bytes.TrimSpace(id), []byte("null")) {
		return DecodeResult{Status: DecodeMissingDiscriminator}
	}

	var snapshot domain.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return DecodeResult{Status: DecodeMalformed, Err: fmt.Errorf("decode session snapshot fields: %w", err)}
	}

	return DecodeResult{Status: DecodeOK, Snapshot: snapshot}
}
