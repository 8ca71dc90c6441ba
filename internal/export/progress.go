package export

// State is a step of an export run.
type State int

const (
	StateIdle State = iota
	StatePreparing
	StateCapturingPage
	StateAssembling
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePreparing:
		return "preparing"
	case StateCapturingPage:
		return "capturing"
	case StateAssembling:
		return "assembling"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Progress is a snapshot of a running export.
type Progress struct {
	State   State
	Percent float64
	// Page is the page being captured, 0 outside the capture loop.
	Page int
	Busy bool
}

// Progress bands. Preparation ends at prepareDone, the page loop fills
// pagesStart..pagesEnd, assembly sits at assembling.
const (
	prepareStart = 2.0
	prepareDone  = 10.0
	pagesStart   = 10.0
	pagesEnd     = 90.0
	assembling   = 95.0
	complete     = 100.0
)

// Sub-steps within one page's share.
const (
	stepRendered   = 0.3
	stepRasterized = 0.8
	stepPlaced     = 1.0
)

// pageProgress returns the percentage reached at step of the i-th (0 based) of n pages.
func pageProgress(i, n int, step float64) float64 {
	if n <= 0 {
		return pagesEnd
	}
	share := (pagesEnd - pagesStart) / float64(n)
	return pagesStart + share*(float64(i)+step)
}
