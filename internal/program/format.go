package program

import (
	"errors"

	"github.com/lodestar-ml/lodestar/internal/tensor"
)

// Container format constants.
const (
	Magic         = "LODE" // parameter container magic bytes
	FormatVersion = 1
	dataAlignment = 64 // tensor data section is 64-byte aligned
	fixedPrefix   = 12 // magic (4) + version (4) + header length (4)
)

// Container format errors.
var (
	ErrInvalidMagic       = errors.New("invalid magic bytes")
	ErrUnsupportedVersion = errors.New("unsupported format version")
	ErrTruncated          = errors.New("container truncated")
	ErrOutOfBounds        = errors.New("tensor extends beyond data section")
	ErrDuplicateTensor    = errors.New("duplicate tensor name")
)

// TensorMeta describes one parameter tensor in the container header.
type TensorMeta struct {
	Name   string `json:"name"`
	DType  string `json:"dtype"`
	Shape  []int  `json:"shape"`
	Offset int64  `json:"offset"` // bytes from the start of the data section
	Size   int64  `json:"size"`   // bytes
}

// Header is the JSON header of a parameter container. A bundle embeds
// the program alongside the parameters so a single file carries the
// whole model.
type Header struct {
	FormatVersion int          `json:"format_version"`
	Program       *Program     `json:"program,omitempty"`
	Tensors       []TensorMeta `json:"tensors"`
}

func dtypeName(dt tensor.DataType) string {
	return dt.String()
}

func alignUp(n int) int {
	if rem := n % dataAlignment; rem != 0 {
		return n + dataAlignment - rem
	}
	return n
}
