package tensor

import "errors"

// Buffer misuse errors. These signal programming-contract violations,
// not runtime conditions a caller is expected to retry.
var (
	ErrBorrowed = errors.New("buffer: cannot resize externally managed memory")
	ErrOwned    = errors.New("buffer: cannot alias an owning buffer")
)

// Buffer is a byte-addressable memory region with explicit ownership
// tagging. An owning Buffer allocated its memory and releases it exactly
// once; a borrowed Buffer aliases memory whose lifetime the caller
// manages, and never releases it.
//
// The zero value is an empty owning Buffer, trivially releasable and
// resizable.
//
// Buffers carry no internal synchronization. A Buffer handed to a
// backend must not be mutated by another goroutine until the call
// returns.
type Buffer struct {
	data     []byte
	external bool
}

// NewBuffer allocates n bytes of zeroed memory owned by the Buffer.
func NewBuffer(n int) Buffer {
	return Buffer{data: make([]byte, n)}
}

// Borrow adopts caller-managed memory without copying. The caller
// retains responsibility for the slice's validity for the Buffer's
// lifetime; the Buffer will never release it.
func Borrow(p []byte) Buffer {
	return Buffer{data: p, external: true}
}

// Resize reallocates an owning Buffer to n bytes, preserving the prefix
// that fits in the new length (content beyond n is dropped on shrink;
// new bytes are zeroed on grow). Resizing a borrowed Buffer is a
// contract violation and returns ErrBorrowed: the Buffer cannot resize
// memory it does not own.
func (b *Buffer) Resize(n int) error {
	if b.external {
		return ErrBorrowed
	}
	if n == len(b.data) {
		return nil
	}
	next := make([]byte, n)
	copy(next, b.data)
	b.data = next
	return nil
}

// Reset releases any currently owned memory and adopts p as borrowed.
func (b *Buffer) Reset(p []byte) {
	b.Release()
	b.data = p
	b.external = true
}

// Alias returns a second Buffer sharing the same backing memory.
// Aliasing is permitted only for borrowed Buffers, where both views are
// plain pointers into caller-managed memory; aliasing an owning Buffer
// would create two releasers for one allocation and returns ErrOwned.
func (b *Buffer) Alias() (Buffer, error) {
	if !b.external {
		return Buffer{}, ErrOwned
	}
	return Buffer{data: b.data, external: true}, nil
}

// Bytes returns the underlying byte slice. Mutations are visible to
// every alias of a borrowed Buffer.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// Len returns the length in bytes.
func (b *Buffer) Len() int {
	return len(b.data)
}

// Empty reports whether the Buffer holds no bytes.
func (b *Buffer) Empty() bool {
	return len(b.data) == 0
}

// Owned reports whether the Buffer is responsible for releasing its
// memory.
func (b *Buffer) Owned() bool {
	return !b.external
}

// Release drops owned memory and returns the Buffer to its empty owning
// state. Borrowed memory is never released: the alias is dropped and
// the caller's slice stays untouched. Release is idempotent.
func (b *Buffer) Release() {
	b.data = nil
	b.external = false
}
