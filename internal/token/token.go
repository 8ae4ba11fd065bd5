// Package token turns raw text into LoD-annotated feed tensors. The
// encoders are backed by the tiktoken BPE vocabularies; the CLI uses
// this package to build int64 feeds from plain text lines.
package token

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"

	"github.com/lodestar-ml/lodestar/internal/tensor"
)

// Codec converts a piece of text into token IDs.
type Codec interface {
	Encode(text string) ([]int64, error)
}

// Encoder is a tiktoken-backed Codec.
type Encoder struct {
	encoding *tiktoken.Tiktoken
	name     string
}

var _ Codec = (*Encoder)(nil)

// NewEncoder creates an Encoder for a named encoding, such as
// "cl100k_base" or "p50k_base".
func NewEncoder(encodingName string) (*Encoder, error) {
	encoding, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("failed to load tiktoken encoding %q: %w", encodingName, err)
	}
	return &Encoder{encoding: encoding, name: encodingName}, nil
}

// NewEncoderForModel creates an Encoder for a model name, such as
// "gpt-4" or "text-embedding-ada-002".
func NewEncoderForModel(modelName string) (*Encoder, error) {
	encoding, err := tiktoken.EncodingForModel(modelName)
	if err != nil {
		return nil, fmt.Errorf("failed to load tiktoken for model %q: %w", modelName, err)
	}
	return &Encoder{encoding: encoding, name: modelName}, nil
}

// Name returns the encoding or model name the Encoder was built from.
func (e *Encoder) Name() string {
	return e.name
}

// Encode converts text to token IDs.
func (e *Encoder) Encode(text string) ([]int64, error) {
	ids := e.encoding.Encode(text, nil, nil)
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return out, nil
}

// BatchTensor encodes each line as one sequence and packs the batch
// into a single flat int64 tensor with a one-level LoD recording the
// sequence boundaries. Empty lines are legal and contribute an empty
// sequence, but the batch as a whole must produce at least one token.
func BatchTensor(codec Codec, name string, lines []string) (tensor.Tensor, error) {
	if len(lines) == 0 {
		return tensor.Tensor{}, fmt.Errorf("token: empty batch")
	}

	var flat []int64
	offsets := make([]int, 1, len(lines)+1)
	for i, line := range lines {
		ids, err := codec.Encode(line)
		if err != nil {
			return tensor.Tensor{}, fmt.Errorf("token: encoding line %d: %w", i, err)
		}
		flat = append(flat, ids...)
		offsets = append(offsets, len(flat))
	}
	if len(flat) == 0 {
		return tensor.Tensor{}, fmt.Errorf("token: batch produced no tokens")
	}

	t, err := tensor.FromInt64s(name, tensor.Shape{len(flat), 1}, flat)
	if err != nil {
		return tensor.Tensor{}, fmt.Errorf("token: %w", err)
	}
	t.LoD = tensor.LoD{offsets}
	return t, nil
}
