package policycache

import (
	"bytes"
	"errors"
	"io"

	"github.com/goforj/policycache/cachecore"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/s2"
)

// CompressionCodec represents a value compression algorithm.
type CompressionCodec = cachecore.CompressionCodec

const (
	CompressionNone   = cachecore.CompressionNone
	CompressionGzip   = cachecore.CompressionGzip
	CompressionSnappy = cachecore.CompressionSnappy
)

var (
	compressMagic = []byte("CMP1")

	ErrValueTooLarge      = errors.New("policycache: value exceeds max size")
	ErrUnsupportedCodec   = errors.New("policycache: unsupported compression codec")
	ErrCorruptCompression = errors.New("policycache: corrupt compressed payload")
)

const (
	codecByteGzip   = 'g'
	codecByteSnappy = 's'
)

func encodeValue(codec CompressionCodec, max int, value []byte) ([]byte, error) {
	if max > 0 && len(value) > max {
		return nil, ErrValueTooLarge
	}
	var out []byte
	switch codec {
	case CompressionNone, "":
		return value, nil
	case CompressionGzip:
		var buf bytes.Buffer
		buf.Write(compressMagic)
		_ = buf.WriteByte(codecByteGzip)
		zw, _ := gzip.NewWriterLevel(&buf, gzip.BestSpeed)
		if _, err := zw.Write(value); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
		out = buf.Bytes()
	case CompressionSnappy:
		encoded := s2.EncodeSnappy(nil, value)
		out = make([]byte, 0, len(compressMagic)+1+len(encoded))
		out = append(out, compressMagic...)
		out = append(out, codecByteSnappy)
		out = append(out, encoded...)
	default:
		return nil, ErrUnsupportedCodec
	}
	if max > 0 && len(out) > max {
		return nil, ErrValueTooLarge
	}
	return out, nil
}

// decodeValue passes through payloads without the compression header.
func decodeValue(in []byte) ([]byte, error) {
	if len(in) < len(compressMagic)+1 {
		return in, nil
	}
	if !bytes.Equal(in[:len(compressMagic)], compressMagic) {
		return in, nil
	}
	codec := in[len(compressMagic)]
	payload := in[len(compressMagic)+1:]
	switch codec {
	case codecByteGzip:
		gr, err := gzip.NewReader(bytes.NewReader(payload))
		if err != nil {
			return nil, ErrCorruptCompression
		}
		defer gr.Close()
		out, err := io.ReadAll(gr)
		if err != nil {
			return nil, ErrCorruptCompression
		}
		return out, nil
	case codecByteSnappy:
		out, err := s2.Decode(nil, payload)
		if err != nil {
			return nil, ErrCorruptCompression
		}
		return out, nil
	default:
		return nil, ErrUnsupportedCodec
	}
}
