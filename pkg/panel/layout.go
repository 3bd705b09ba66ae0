// Package panel implements the Panel Orchestrator (spec.md §4.8): a pure
// computation of terminal panel sizes from layout inputs.
package panel

// ContentSizes is the current size, in lines, of each non-prompt panel.
type ContentSizes struct {
	Output int
	Module int
}

// Dim is one panel dimension (spec.md §3: `Dim = {min, max?}`). Min is the
// floor a panel is never sized below except by the floor-compression path
// for an undersized terminal; on an emitted PanelLayout, Min also carries
// the panel's actual resolved height, so §3's invariant ("sum of min
// fields equals terminal height when a layout is emitted") holds directly
// against this field. Max is the configured ceiling that bounded this
// computation, if any — nil means unbounded.
type Dim struct {
	Min int
	Max *int
}

// PanelLayout is the computed panel sizes, in terminal lines (spec.md §3).
type PanelLayout struct {
	Output Dim
	Module Dim
	Prompt Dim
}

// Floor line counts a panel is never sized below in ordinary operation;
// only the floor-compression path (spec.md §8) sizes a panel under its
// floor, and only once an earlier panel in output → module → prompt order
// has already claimed its own floor.
const (
	outputFloor = 1
	moduleFloor = 1
	promptFloor = 3
)

// Compute implements the algorithm of spec.md §4.8. When terminalHeight is
// too small to give every panel its floor, it instead applies the
// floor-compression boundary behavior of spec.md §8.
func Compute(terminalHeight int, typingActive bool, promptLines int, content ContentSizes) PanelLayout {
	if terminalHeight < outputFloor+moduleFloor+promptFloor {
		return compressToFloors(terminalHeight)
	}

	switch {
	case typingActive:
		max := terminalHeight / 2
		promptHeight := promptLines + 2
		if promptHeight > max {
			promptHeight = max
		}
		if promptHeight < promptFloor {
			promptHeight = promptFloor
		}
		remainder := terminalHeight - promptHeight
		output := (remainder * 7) / 10
		module := remainder - output
		return PanelLayout{
			Output: Dim{Min: output},
			Module: Dim{Min: module},
			Prompt: Dim{Min: promptHeight, Max: &max},
		}

	case content.Output+content.Module+3 <= terminalHeight:
		return PanelLayout{
			Output: Dim{Min: content.Output},
			Module: Dim{Min: content.Module},
			Prompt: Dim{Min: 3},
		}

	default:
		output := (terminalHeight * 5) / 10
		module := (terminalHeight * 3) / 10
		prompt := terminalHeight - output - module
		return PanelLayout{
			Output: Dim{Min: output},
			Module: Dim{Min: module},
			Prompt: Dim{Min: prompt},
		}
	}
}

// compressToFloors implements spec.md §8's boundary behavior for a
// terminal shorter than the sum of every panel's floor: floors are claimed
// in the order output → module → prompt, so output reaches its floor
// first, module next out of whatever remains, and prompt — last in line —
// absorbs whatever shortfall is left, down to zero.
func compressToFloors(terminalHeight int) PanelLayout {
	remaining := terminalHeight

	take := func(floor int) int {
		if remaining <= 0 {
			return 0
		}
		n := floor
		if n > remaining {
			n = remaining
		}
		remaining -= n
		return n
	}

	output := take(outputFloor)
	module := take(moduleFloor)
	prompt := take(promptFloor)

	return PanelLayout{
		Output: Dim{Min: output},
		Module: Dim{Min: module},
		Prompt: Dim{Min: prompt},
	}
}
