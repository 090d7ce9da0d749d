package postprocess

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-yolo/images"
)

// NMSConfig defines parameters for Non-Maximum Suppression.
type NMSConfig struct {
	ConfidenceThreshold float32 // Candidates at or below this confidence are dropped.
	IoUThreshold        float32 // Overlap above this suppresses the weaker box.
	ClassAware          bool    // If true, suppress only within the same class.
	MaxDetections       int     // Cap on kept boxes; 0 keeps all.
}

// ApplyNMS performs greedy Non-Maximum Suppression.
//
// Candidates above the confidence threshold are ordered by descending
// confidence, ties broken by their position in candidates. The best remaining
// candidate is kept and every remaining candidate overlapping it by more than
// the IoU threshold is suppressed, until none remain.
//
// Arguments:
//   - candidates: Decoded candidates in any order.
//   - config: NMS configuration.
//
// Returns:
//   - []int: Indices into candidates of the kept boxes, highest confidence first.
func ApplyNMS(candidates []Candidate, config NMSConfig) []int {
	order := make([]int, 0, len(candidates))
	for i, c := range candidates {
		if c.Confidence > config.ConfidenceThreshold {
			order = append(order, i)
		}
	}
	sort.SliceStable(order, func(a, b int) bool {
		return candidates[order[a]].Confidence > candidates[order[b]].Confidence
	})

	keep := make([]int, 0, len(order))
	suppressed := make([]bool, len(order))
	for i, idx := range order {
		if suppressed[i] {
			continue
		}
		keep = append(keep, idx)
		if config.MaxDetections > 0 && len(keep) == config.MaxDetections {
			break
		}

		anchor := candidates[idx]
		for j := i + 1; j < len(order); j++ {
			if suppressed[j] {
				continue
			}
			other := candidates[order[j]]
			if config.ClassAware && other.ClassID != anchor.ClassID {
				continue
			}
			if images.CalculateIoU(anchor.Box, other.Box) > config.IoUThreshold {
				suppressed[j] = true
			}
		}
	}
	return keep
}

// NMSBoxes is ApplyNMS over parallel box and score slices.
func NMSBoxes(boxes []images.Box, scores []float32, confThreshold, iouThreshold float32) ([]int, error) {
	if len(boxes) != len(scores) {
		return nil, errors.Wrapf(ErrShapeMismatch, "%d boxes but %d scores", len(boxes), len(scores))
	}
	candidates := make([]Candidate, len(boxes))
	for i := range boxes {
		candidates[i] = Candidate{Box: boxes[i], Confidence: scores[i], Row: i}
	}
	return ApplyNMS(candidates, NMSConfig{
		ConfidenceThreshold: confThreshold,
		IoUThreshold:        iouThreshold,
	}), nil
}
