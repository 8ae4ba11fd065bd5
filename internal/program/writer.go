package program

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"

	"github.com/lodestar-ml/lodestar/internal/tensor"
)

// encodeContainer serializes tensors (and optionally a program) into
// the binary container layout: magic, version, header length, JSON
// header, padding to the aligned data section, tensor data.
func encodeContainer(prog *Program, tensors []tensor.Tensor) ([]byte, error) {
	hdr := Header{
		FormatVersion: FormatVersion,
		Program:       prog,
		Tensors:       make([]TensorMeta, 0, len(tensors)),
	}

	var offset int64
	for _, t := range tensors {
		if t.Name == "" {
			return nil, fmt.Errorf("cannot serialize a tensor without a name")
		}
		if got, want := t.Data.Len(), t.ByteSize(); got != want {
			return nil, fmt.Errorf("tensor %q: buffer is %d bytes, shape %v × %s needs %d",
				t.Name, got, t.Shape, t.DType, want)
		}
		hdr.Tensors = append(hdr.Tensors, TensorMeta{
			Name:   t.Name,
			DType:  dtypeName(t.DType),
			Shape:  t.Shape,
			Offset: offset,
			Size:   int64(t.Data.Len()),
		})
		offset += int64(t.Data.Len())
	}

	headerJSON, err := json.Marshal(&hdr)
	if err != nil {
		return nil, fmt.Errorf("encode container header: %w", err)
	}

	dataStart := alignUp(fixedPrefix + len(headerJSON))
	out := make([]byte, dataStart, dataStart+int(offset))
	copy(out[:4], Magic)
	binary.LittleEndian.PutUint32(out[4:8], FormatVersion)
	binary.LittleEndian.PutUint32(out[8:12], uint32(len(headerJSON)))
	copy(out[fixedPrefix:], headerJSON)

	for _, t := range tensors {
		out = append(out, t.Data.Bytes()...)
	}
	return out, nil
}

// WriteParams writes a parameter container to path.
func WriteParams(path string, tensors []tensor.Tensor) error {
	raw, err := encodeContainer(nil, tensors)
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}

// WriteBundle writes a single-file bundle holding both the program and
// its parameters, the format consumed by the accelerator backend.
func WriteBundle(path string, prog *Program, tensors []tensor.Tensor) error {
	if err := prog.Validate(); err != nil {
		return err
	}
	raw, err := encodeContainer(prog, tensors)
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}
