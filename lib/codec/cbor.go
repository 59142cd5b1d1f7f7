// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"encoding/base64"
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// encMode encodes with Core Deterministic Encoding: sorted map keys,
// smallest integer encoding, no indefinite-length items.
var encMode cbor.EncMode

// decMode accepts standard CBOR. Unknown fields are ignored so an
// older client can decode payloads from a newer controller.
var decMode cbor.DecMode

func init() {
	var err error

	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		// Controller payloads only ever use string map keys. When the
		// decode target is any-typed, pick map[string]any instead of
		// the CBOR default map[interface{}]interface{} so the result
		// is usable by ordinary Go code.
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

// Marshal encodes v to CBOR using Core Deterministic Encoding.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR data into v.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// MarshalBase64 encodes v to CBOR and wraps the result in standard
// base64. This is the form used for payloads embedded in remote
// command lines and controller stdout, where raw bytes would be
// mangled by shells and line-oriented log capture.
func MarshalBase64(v any) (string, error) {
	data, err := Marshal(v)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// UnmarshalBase64 decodes a base64-wrapped CBOR payload into v.
func UnmarshalBase64(payload string, v any) error {
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return fmt.Errorf("codec: payload is not valid base64: %w", err)
	}
	return Unmarshal(data, v)
}

// RawMessage is a raw encoded CBOR value. It delays decoding of a
// nested payload until the concrete type is known.
type RawMessage = cbor.RawMessage
