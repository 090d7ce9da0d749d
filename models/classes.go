// Package models - Class-name sets that give detection class ids their meaning.
package models

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
)

// ErrNoClasses is returned when a class-name list is empty.
var ErrNoClasses = errors.New("class name list is empty")

// ClassSet maps the class index returned by a model to a label.
type ClassSet struct {
	names     []string
	nameToIdx map[string]int
}

// NewClassSet builds a ClassSet where names[i] is the label of class i.
func NewClassSet(names ...string) ClassSet {
	s := ClassSet{
		names:     append([]string(nil), names...),
		nameToIdx: make(map[string]int, len(names)),
	}
	for i, n := range s.names {
		if _, dup := s.nameToIdx[n]; !dup {
			s.nameToIdx[n] = i
		}
	}
	return s
}

// Len returns the number of known classes.
func (s ClassSet) Len() int { return len(s.names) }

// Names returns a copy of the labels in index order.
func (s ClassSet) Names() []string { return append([]string(nil), s.names...) }

// Name returns the label for id, or "unknown_<id>" when id is out of range.
func (s ClassSet) Name(id int) string {
	if id < 0 || id >= len(s.names) {
		return fmt.Sprintf("unknown_%d", id)
	}
	return s.names[id]
}

// Index returns the first class index carrying name.
func (s ClassSet) Index(name string) (int, bool) {
	idx, ok := s.nameToIdx[name]
	return idx, ok
}

// ParseClassNames reads a newline-delimited class list. Each line is one label
// in class-index order; CRLF line endings are accepted.
func ParseClassNames(r io.Reader) (ClassSet, error) {
	var names []string
	sc := bufio.NewScanner(r)
	// ScanLines drops the trailing \r of CRLF files.
	for sc.Scan() {
		names = append(names, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return ClassSet{}, errors.Wrap(err, "read class names")
	}
	if len(names) == 0 {
		return ClassSet{}, ErrNoClasses
	}
	return NewClassSet(names...), nil
}

// LoadClassNames reads a class-name file from disk.
//
// Arguments:
//   - path: Path to a newline-delimited list of labels.
//
// Returns:
//   - ClassSet: The labels in file order.
//   - error: ErrNoClasses for an empty file, or the I/O error.
func LoadClassNames(path string) (ClassSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return ClassSet{}, errors.Wrapf(err, "open class names %s", path)
	}
	defer f.Close()

	set, err := ParseClassNames(f)
	if err != nil {
		return ClassSet{}, errors.Wrap(err, path)
	}
	return set, nil
}

// YOLOClasses is the 80-class COCO label set used by YOLOv5 exports.
var YOLOClasses = NewClassSet(
	"person", "bicycle", "car", "motorcycle", "airplane", "bus", "train", "truck", "boat",
	"traffic light", "fire hydrant", "stop sign", "parking meter", "bench", "bird", "cat", "dog", "horse",
	"sheep", "cow", "elephant", "bear", "zebra", "giraffe", "backpack", "umbrella", "handbag", "tie",
	"suitcase", "frisbee", "skis", "snowboard", "sports ball", "kite", "baseball bat", "baseball glove",
	"skateboard", "surfboard", "tennis racket", "bottle", "wine glass", "cup", "fork", "knife", "spoon",
	"bowl", "banana", "apple", "sandwich", "orange", "broccoli", "carrot", "hot dog", "pizza", "donut",
	"cake", "chair", "couch", "potted plant", "bed", "dining table", "toilet", "tv", "laptop", "mouse",
	"remote", "keyboard", "cell phone", "microwave", "oven", "toaster", "sink", "refrigerator", "book",
	"clock", "vase", "scissors", "teddy bear", "hair drier", "toothbrush",
)
