package tileui

import (
	"fmt"
	"log/slog"
	"sync/atomic"
)

// globalDebug gates the debug checks below. Set through UI.SetDebugMode.
var globalDebug atomic.Bool

// debugCheckDisposed panics with a descriptive message when a disposed node is
// used in a tree operation. In release mode callers skip this entirely.
func debugCheckDisposed(n *Node, op string) {
	if n.IsDisposed() {
		panic(fmt.Sprintf("tileui debug: %s on disposed node %q (ID was %d)", op, n.Name, n.ID))
	}
}

// debugMaxTreeDepth is the depth above which a warning is logged.
const debugMaxTreeDepth = 32

func debugCheckTreeDepth(n *Node) {
	depth := 0
	for p := n; p != nil; p = p.Parent() {
		depth++
	}
	if depth > debugMaxTreeDepth {
		slog.Warn("tileui: tree too deep", "node", n.Name, "depth", depth, "threshold", debugMaxTreeDepth)
	}
}

// debugMaxChildCount is the child count above which a warning is logged.
const debugMaxChildCount = 1000

func debugCheckChildCount(n *Node, count int) {
	if count > debugMaxChildCount {
		slog.Warn("tileui: too many children", "node", n.Name, "children", count, "threshold", debugMaxChildCount)
	}
}
