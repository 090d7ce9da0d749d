package postprocess

import "github.com/nvr-ai/go-yolo/images"

// BestClass returns the index and value of the highest score. Ties go to the
// earlier index. An empty or all non-positive slice yields class 0, score 0.
func BestClass(scores []float32) (int, float32) {
	best, bestScore := 0, float32(0)
	for i, s := range scores {
		if s > bestScore {
			best, bestScore = i, s
		}
	}
	return best, bestScore
}

// Decode turns raw output rows into candidates.
//
// Rows whose objectness is not above confThreshold are skipped. Only
// objectness is filtered here; the final confidence (objectness times the best
// class score) is filtered during suppression. Candidates keep row order.
//
// Arguments:
//   - out: The validated output view.
//   - confThreshold: The objectness threshold.
//
// Returns:
//   - []Candidate: The surviving rows, never nil.
func Decode(out *Output, confThreshold float32) []Candidate {
	candidates := make([]Candidate, 0)
	for i := 0; i < out.Predictions; i++ {
		row := out.Row(i)
		objectness := row[4]
		if !(objectness > confThreshold) {
			continue
		}

		classID, score := BestClass(row[boxAttributes:])
		candidates = append(candidates, Candidate{
			Box:        images.BoxFromCenter(row[0], row[1], row[2], row[3]),
			Objectness: objectness,
			ClassScore: score,
			Confidence: objectness * score,
			ClassID:    classID,
			Row:        i,
		})
	}
	return candidates
}
