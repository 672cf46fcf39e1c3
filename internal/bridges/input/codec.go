package input

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// Payload formats.
const (
	FormatJSON = "json"
	FormatCBOR = "cbor"
)

// PayloadCodec encodes MQTT payloads.
type PayloadCodec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Format() string
}

// NewPayloadCodec returns the codec for format ("json" or "cbor").
func NewPayloadCodec(format string) (PayloadCodec, error) {
	switch format {
	case FormatJSON, "":
		return jsonCodec{}, nil
	case FormatCBOR:
		return newCBORCodec()
	default:
		return nil, fmt.Errorf("unknown payload format %q", format)
	}
}

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

// Unmarshal keeps numbers as json.Number so integer codes survive intact.
func (jsonCodec) Unmarshal(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}

func (jsonCodec) Format() string { return FormatJSON }

type cborCodec struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

func newCBORCodec() (cborCodec, error) {
	encOpts := cbor.CoreDetEncOptions()
	encOpts.Time = cbor.TimeRFC3339Nano
	enc, err := encOpts.EncMode()
	if err != nil {
		return cborCodec{}, fmt.Errorf("cbor encoder: %w", err)
	}

	dec, err := cbor.DecOptions{
		// Maps inside any-typed values decode as map[string]any, which is
		// what descriptor parsing expects.
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
		DupMapKey:      cbor.DupMapKeyQuiet,
	}.DecMode()
	if err != nil {
		return cborCodec{}, fmt.Errorf("cbor decoder: %w", err)
	}
	return cborCodec{enc: enc, dec: dec}, nil
}

func (c cborCodec) Marshal(v any) ([]byte, error)      { return c.enc.Marshal(v) }
func (c cborCodec) Unmarshal(data []byte, v any) error { return c.dec.Unmarshal(data, v) }
func (c cborCodec) Format() string                     { return FormatCBOR }
