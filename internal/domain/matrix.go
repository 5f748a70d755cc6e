package domain

import "sort"

// ResultCell is the output of one (prompt, backend) task.
type ResultCell struct {
	PromptIndex  int
	BackendIndex int
	Output       string
}

// SortCellsByBackend orders a wave's cells by ascending backend index,
// which restores the backend order regardless of completion order.
func SortCellsByBackend(cells []ResultCell) {
	sort.SliceStable(cells, func(i, j int) bool {
		return cells[i].BackendIndex < cells[j].BackendIndex
	})
}

// ResultMatrix holds backend outputs in backend-major order:
// m[backend][prompt]. A matrix returned by the dispatcher is always fully
// populated.
type ResultMatrix [][]string

// NewResultMatrix allocates an empty matrix for the given dimensions.
func NewResultMatrix(numBackends, numPrompts int) ResultMatrix {
	m := make(ResultMatrix, numBackends)
	for b := range m {
		m[b] = make([]string, numPrompts)
	}
	return m
}

// NumBackends returns the number of backend rows.
func (m ResultMatrix) NumBackends() int { return len(m) }

// NumPrompts returns the number of prompt columns. It is zero for an empty
// matrix.
func (m ResultMatrix) NumPrompts() int {
	if len(m) == 0 {
		return 0
	}
	return len(m[0])
}

// Outputs returns every output produced by backend b, indexed by prompt.
func (m ResultMatrix) Outputs(b int) []string { return m[b] }

// Place writes a wave of cells into the matrix.
func (m ResultMatrix) Place(cells []ResultCell) {
	for _, c := range cells {
		m[c.BackendIndex][c.PromptIndex] = c.Output
	}
}
