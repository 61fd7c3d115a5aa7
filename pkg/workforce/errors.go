package workforce

import "errors"

// ErrDecompositionEmpty is returned when decomposition yields zero
// sub-tasks even after every fallback — the run loop converts this to
// error{} + end{result:"error", reason:"Decomposition failed"} .
var ErrDecompositionEmpty = errors.New("workforce: decomposition produced no sub-tasks")
