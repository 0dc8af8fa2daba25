package utils

import (
	"strings"

	"github.com/rivo/uniseg"
)

const ellipsis = "…"

// stepState tracks uniseg's parser state while walking grapheme clusters.
type stepState struct {
	unisegState int
	boundaries  int
}

// Width returns the current grapheme cluster's width in cells.
func (s *stepState) Width() int {
	return s.boundaries >> uniseg.ShiftWidth
}

func step(str string, state *stepState) (cluster, rest string, newState *stepState) {
	if state == nil {
		state = &stepState{
			unisegState: -1,
		}
	}
	if len(str) == 0 {
		newState = state
		return
	}

	cluster, rest, state.boundaries, state.unisegState = uniseg.StepString(str, state.unisegState)
	newState = state
	return
}

// Excerpt shortens text so it occupies at most width terminal cells, cutting
// only on grapheme cluster boundaries. Shortened text ends with an ellipsis.
func Excerpt(text string, width int) string {
	if width <= 0 {
		return ""
	}
	if uniseg.StringWidth(text) <= width {
		return text
	}

	// Leave a cell for the ellipsis.
	limit := width - 1

	var (
		b     strings.Builder
		state *stepState
		used  int
	)
	str := text
	for len(str) > 0 {
		var cluster string
		cluster, str, state = step(str, state)
		if used+state.Width() > limit {
			break
		}
		b.WriteString(cluster)
		used += state.Width()
	}
	b.WriteString(ellipsis)

	return b.String()
}
