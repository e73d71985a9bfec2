package cache

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"salesreports/internal/domain/reports"
)

// DefaultCompressThreshold is the payload size above which labels are stored zstd-compressed.
const DefaultCompressThreshold = 8 * 1024

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// payloadCodec encodes option labels for redis. Payloads above threshold are
// written as a zstd frame, smaller ones as plain JSON. Decode accepts both.
type payloadCodec struct {
	encoder   *zstd.Encoder
	decoder   *zstd.Decoder
	threshold int
}

func newPayloadCodec(threshold int) (*payloadCodec, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &payloadCodec{encoder: encoder, decoder: decoder, threshold: threshold}, nil
}

func (c *payloadCodec) Encode(options reports.VariantOptions) ([]byte, error) {
	data, err := json.Marshal(options)
	if err != nil {
		return nil, err
	}
	if len(data) <= c.threshold {
		return data, nil
	}
	return c.encoder.EncodeAll(data, nil), nil
}

func (c *payloadCodec) Decode(data []byte) (reports.VariantOptions, error) {
	if bytes.HasPrefix(data, zstdMagic) {
		raw, err := c.decoder.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("decompress: %w", err)
		}
		data = raw
	}
	var options reports.VariantOptions
	if err := json.Unmarshal(data, &options); err != nil {
		return nil, err
	}
	return options, nil
}
