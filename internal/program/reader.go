package program

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/lodestar-ml/lodestar/internal/tensor"
)

// parseContainer splits a raw container into its header and data
// section, validating magic, version and bounds.
func parseContainer(raw []byte) (*Header, []byte, error) {
	if len(raw) < fixedPrefix {
		return nil, nil, ErrTruncated
	}
	if string(raw[:4]) != Magic {
		return nil, nil, ErrInvalidMagic
	}
	version := binary.LittleEndian.Uint32(raw[4:8])
	if version != FormatVersion {
		return nil, nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}
	headerLen := int(binary.LittleEndian.Uint32(raw[8:12]))
	if headerLen <= 0 || fixedPrefix+headerLen > len(raw) {
		return nil, nil, ErrTruncated
	}

	var hdr Header
	if err := json.Unmarshal(raw[fixedPrefix:fixedPrefix+headerLen], &hdr); err != nil {
		return nil, nil, fmt.Errorf("parse container header: %w", err)
	}
	if hdr.FormatVersion != FormatVersion {
		return nil, nil, fmt.Errorf("%w: header version %d", ErrUnsupportedVersion, hdr.FormatVersion)
	}

	dataStart := alignUp(fixedPrefix + headerLen)
	if dataStart > len(raw) {
		return nil, nil, ErrTruncated
	}
	return &hdr, raw[dataStart:], nil
}

// decodeTensors materializes the header's tensor metadata over the data
// section. The returned tensors borrow into raw: the container blob is
// the single owner and the weights are read-only by contract.
func decodeTensors(hdr *Header, data []byte) (map[string]tensor.Tensor, error) {
	params := make(map[string]tensor.Tensor, len(hdr.Tensors))
	for _, meta := range hdr.Tensors {
		if meta.Name == "" {
			return nil, fmt.Errorf("parameter with empty name")
		}
		if _, dup := params[meta.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateTensor, meta.Name)
		}
		dt, ok := tensor.ParseDataType(meta.DType)
		if !ok {
			return nil, fmt.Errorf("parameter %q: unknown dtype %q", meta.Name, meta.DType)
		}
		shape := tensor.Shape(meta.Shape)
		if err := shape.Validate(); err != nil {
			return nil, fmt.Errorf("parameter %q: %w", meta.Name, err)
		}
		want := int64(shape.NumElements() * dt.Size())
		if meta.Size != want {
			return nil, fmt.Errorf("parameter %q: size %d does not match shape %v × %s (%d)",
				meta.Name, meta.Size, meta.Shape, meta.DType, want)
		}
		if meta.Offset < 0 || meta.Offset+meta.Size > int64(len(data)) {
			return nil, fmt.Errorf("%w: parameter %q", ErrOutOfBounds, meta.Name)
		}
		params[meta.Name] = tensor.Tensor{
			Name:  meta.Name,
			Shape: shape.Clone(),
			DType: dt,
			Data:  tensor.Borrow(data[meta.Offset : meta.Offset+meta.Size]),
		}
	}
	return params, nil
}

// ReadParams decodes a parameter container.
func ReadParams(raw []byte) (map[string]tensor.Tensor, error) {
	hdr, data, err := parseContainer(raw)
	if err != nil {
		return nil, err
	}
	return decodeTensors(hdr, data)
}

// ReadBundle decodes a single-file bundle: the embedded program plus
// its parameters.
func ReadBundle(raw []byte) (*Program, map[string]tensor.Tensor, error) {
	hdr, data, err := parseContainer(raw)
	if err != nil {
		return nil, nil, err
	}
	if hdr.Program == nil {
		return nil, nil, fmt.Errorf("container has no embedded program")
	}
	if err := hdr.Program.Validate(); err != nil {
		return nil, nil, err
	}
	params, err := decodeTensors(hdr, data)
	if err != nil {
		return nil, nil, err
	}
	return hdr.Program, params, nil
}
