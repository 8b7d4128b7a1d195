package models

// SparseVector is a lexical vector in Qdrant's sparse format. Indices are
// sorted ascending and unique.
type SparseVector struct {
	Indices []uint32
	Values  []float32
}

func (v SparseVector) Empty() bool { return len(v.Indices) == 0 }

// Passage is one hit returned by the vector store.
type Passage struct {
	ID    string
	Score float32
	Text  string
	File  string
	Page  int
}

// VectorPoint is one chunk ready to be written to the vector store.
type VectorPoint struct {
	ID     string
	Dense  []float32
	Sparse SparseVector
	Text   string
	File   string
	Page   int
}
