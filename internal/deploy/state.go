package deploy

import "fmt"

// State is a step of a deployment run.
type State string

// Deployment states, in the order a successful run enters them.
const (
	StatePending          State = "pending"
	StateResolvingPage    State = "resolving_page"
	StatePageFound        State = "page_found"
	StatePageCreated      State = "page_created"
	StateUploadingReadme  State = "uploading_readme"
	StateUploadingArchive State = "uploading_archive"
	StateDone             State = "done"
	StateAborted          State = "aborted"
)

// IsTerminal reports whether no further transition can leave s.
func IsTerminal(s State) bool {
	return s == StateDone || s == StateAborted
}

func isAllowedTransition(from, to State) bool {
	if to == StateAborted {
		return !IsTerminal(from)
	}
	switch from {
	case StatePending:
		return to == StateResolvingPage
	case StateResolvingPage:
		return to == StatePageFound || to == StatePageCreated
	case StatePageFound, StatePageCreated:
		return to == StateUploadingReadme
	case StateUploadingReadme:
		return to == StateUploadingArchive
	case StateUploadingArchive:
		return to == StateDone
	default:
		return false
	}
}

// machine tracks the current state of one run and every state it entered.
type machine struct {
	state State
	trace []State
}

func newMachine() *machine {
	return &machine{state: StatePending}
}

func (m *machine) transition(to State) error {
	if !isAllowedTransition(m.state, to) {
		return fmt.Errorf("disallowed deployment transition: %s -> %s", m.state, to)
	}
	m.state = to
	m.trace = append(m.trace, to)
	return nil
}
