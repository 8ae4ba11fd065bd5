package tensor

import "fmt"

// LoD describes nested variable-length sequence structure packed into a
// flat tensor buffer. Each level is an ordered slice of cumulative
// offsets: level 0 of a batch of sentences holds word offsets per
// sentence, so {0, 3, 7} packs two sentences of 3 and 4 words.
//
// An empty LoD means the tensor is dense and the shape's first
// dimension is the literal batch size.
type LoD [][]int

// Levels returns the number of nesting levels.
func (l LoD) Levels() int {
	return len(l)
}

// Empty reports whether the tensor has no sequence structure.
func (l LoD) Empty() bool {
	return len(l) == 0
}

// Clone returns a deep copy of the LoD.
func (l LoD) Clone() LoD {
	if len(l) == 0 {
		return nil
	}
	clone := make(LoD, len(l))
	for i, level := range l {
		clone[i] = append([]int(nil), level...)
	}
	return clone
}

// Validate checks offset consistency: every level starts at zero and is
// nondecreasing, each level's last offset indexes into the level below,
// and the finest level's last offset equals rows (the tensor's first
// dimension). rows < 0 skips the final check for callers that do not
// know the row count yet.
func (l LoD) Validate(rows int) error {
	for i, level := range l {
		if len(level) < 2 {
			return fmt.Errorf("lod level %d: needs at least 2 offsets, got %d", i, len(level))
		}
		if level[0] != 0 {
			return fmt.Errorf("lod level %d: first offset is %d, want 0", i, level[0])
		}
		for j := 1; j < len(level); j++ {
			if level[j] < level[j-1] {
				return fmt.Errorf("lod level %d: offsets decrease at index %d (%d < %d)",
					i, j, level[j], level[j-1])
			}
		}
		last := level[len(level)-1]
		if i+1 < len(l) {
			if want := len(l[i+1]) - 1; last != want {
				return fmt.Errorf("lod level %d: last offset %d does not index level %d (%d entries)",
					i, last, i+1, want)
			}
		} else if rows >= 0 && last != rows {
			return fmt.Errorf("lod level %d: last offset %d does not match row count %d", i, last, rows)
		}
	}
	return nil
}

// NumSequences returns the number of sequences at the coarsest level,
// or rows itself when the LoD is empty (dense batch).
func (l LoD) NumSequences(rows int) int {
	if len(l) == 0 {
		return rows
	}
	return len(l[0]) - 1
}
