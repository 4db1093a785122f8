package processmgr

import (
	"os"
	"strconv"
	"syscall"
)

// ExitStatus is how a child terminated. Code is meaningful only when
// Signaled is false.
type ExitStatus struct {
	Code     int            `json:"code"`
	Signaled bool           `json:"signaled"`
	Signal   syscall.Signal `json:"signal,omitempty"`
}

func (s ExitStatus) String() string {
	if s.Signaled {
		return "signal " + s.Signal.String()
	}
	return "code " + strconv.Itoa(s.Code)
}

// ExitClass is the recovery-relevant reading of an ExitStatus.
type ExitClass int

const (
	// Expected covers a kill issued by the supervisor and the encoder's own
	// exit code for an interrupted run.
	Expected ExitClass = iota
	// Error is an encoder failure (bad input, unreachable source, ...).
	Error
	// Unclassified is anything else, including a clean exit of a stream that
	// should never end.
	Unclassified
)

func (c ExitClass) String() string {
	switch c {
	case Expected:
		return "expected"
	case Error:
		return "error"
	case Unclassified:
		return "unclassified"
	default:
		return "unknown"
	}
}

// Classify maps an exit status onto its class:
//
//	code  | signal  | class
//	------+---------+-------------
//	none  | SIGKILL | Expected
//	255   | none    | Expected
//	1-254 | none    | Error
//	other | other   | Unclassified
func Classify(st ExitStatus) ExitClass {
	switch {
	case st.Signaled && st.Signal == syscall.SIGKILL:
		return Expected
	case st.Signaled:
		return Unclassified
	case st.Code == 255:
		return Expected
	case st.Code >= 1 && st.Code <= 254:
		return Error
	default:
		return Unclassified
	}
}

// statusOf extracts the exit status from a reaped process.
func statusOf(ps *os.ProcessState) (ExitStatus, bool) {
	if ps == nil {
		return ExitStatus{}, false
	}
	ws, ok := ps.Sys().(syscall.WaitStatus)
	if !ok {
		return ExitStatus{Code: ps.ExitCode()}, true
	}
	if ws.Signaled() {
		return ExitStatus{Code: -1, Signaled: true, Signal: ws.Signal()}, true
	}
	return ExitStatus{Code: ws.ExitStatus()}, true
}
