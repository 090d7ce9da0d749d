// Package postprocess - Decoding, suppression and rescaling of YOLO outputs.
package postprocess

import "github.com/nvr-ai/go-yolo/images"

// Candidate is one decoded prediction row before suppression.
type Candidate struct {
	// The box in letterboxed-frame coordinates.
	Box images.Box
	// The network's confidence that the row contains any object.
	Objectness float32
	// The score of the best class.
	ClassScore float32
	// Objectness * ClassScore.
	Confidence float32
	// The predicted class index.
	ClassID int
	// The row index in the raw output.
	Row int
}

// Select returns the candidates at the given indices, in index order.
func Select(candidates []Candidate, indices []int) []Candidate {
	out := make([]Candidate, 0, len(indices))
	for _, i := range indices {
		out = append(out, candidates[i])
	}
	return out
}
