package filterprop

import "errors"

// Error kinds for handle_filter_update rejections (spec.md §4.6).
var (
	// ErrMalformed is returned when path or filter is empty.
	ErrMalformed = errors.New("filterprop: empty path or filter")
	// ErrUnrecognizedSender is returned when the last hop of path is not a
	// direct neighbor.
	ErrUnrecognizedSender = errors.New("filterprop: sender not in routing table")
	// ErrLoop is returned when path already contains this node's id.
	ErrLoop = errors.New("filterprop: path contains a loop")
	// ErrDistanceOverflow is returned when the path length exceeds 65535.
	ErrDistanceOverflow = errors.New("filterprop: distance exceeds uint16 range")
)
