// Package tensor provides the data containers exchanged across the
// Lodestar inference boundary: ownership-tagged buffers, shapes, LoD
// sequence structure, and the Tensor record itself.
package tensor

// DataType represents the element type of a tensor crossing the
// inference boundary. The set is deliberately closed: backends agree
// on exactly these encodings.
type DataType int

// Supported boundary element types.
const (
	Float32 DataType = iota
	Int64
)

// Size returns the byte width of one element of the data type.
func (dt DataType) Size() int {
	switch dt {
	case Float32:
		return 4
	case Int64:
		return 8
	default:
		panic("unknown data type")
	}
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case Float32:
		return "float32"
	case Int64:
		return "int64"
	default:
		return "unknown"
	}
}

// ParseDataType maps a serialized type name back to its tag.
func ParseDataType(s string) (DataType, bool) {
	switch s {
	case "float32":
		return Float32, true
	case "int64":
		return Int64, true
	default:
		return 0, false
	}
}
