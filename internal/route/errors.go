package route

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidNodeCount     = errors.New("node count must be positive")
	ErrInvalidBounds        = errors.New("area bounds leave no room inside the margin")
	ErrInvalidThreshold     = errors.New("neighbor threshold must be positive")
	ErrInvalidNodeID        = errors.New("node ids must be dense from 0")
	ErrUnknownNode          = errors.New("unknown node")
	ErrNeighborsNotComputed = errors.New("neighbor sets have not been computed")
)

// InsufficientNodesError 节点数不足 2 时无法求最远节点对
type InsufficientNodesError struct {
	Count int
}

func (e *InsufficientNodesError) Error() string {
	return fmt.Sprintf("insufficient nodes: need at least 2, got %d", e.Count)
}
