package docstore

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a failed fetch by what every candidate reported.
type Kind int

const (
	// KindExhausted is the mixed case: candidates failed for different
	// reasons and no single classification applies.
	KindExhausted Kind = iota

	// KindNotFound means every candidate reported the resource absent.
	KindNotFound

	// KindForbidden means at least one candidate reported an explicit
	// permission denial, which outranks the other classifications because
	// it is actionable.
	KindForbidden

	// KindUnreachable means every candidate failed at the transport level
	// before receiving a status.
	KindUnreachable

	// KindMalformed means a body was fetched but could not be decoded.
	KindMalformed
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "resource not found"
	case KindForbidden:
		return "access forbidden"
	case KindUnreachable:
		return "document store unreachable"
	case KindMalformed:
		return "malformed response"
	default:
		return "all candidate request forms failed"
	}
}

// Diagnostic records one candidate's failure. Status is zero for
// transport-level failures that never received a response.
type Diagnostic struct {
	Form   string `json:"form"`
	URL    string `json:"url"`
	Status int    `json:"status,omitempty"`
	Detail string `json:"detail"`
}

// FetchError reports that a fetch or listing failed. Diagnostics hold one
// entry per attempted candidate, in attempt order, so support can see
// exactly which request forms were tried and how each one failed.
type FetchError struct {
	Locator     string
	Kind        Kind
	Diagnostics []Diagnostic
}

func (e *FetchError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "fetch %s: %s (%d candidates tried)", e.Locator, e.Kind, len(e.Diagnostics))
	for _, d := range e.Diagnostics {
		fmt.Fprintf(&b, "\n  %s: %s", d.Form, d.Detail)
	}
	return b.String()
}

// KindOf extracts the failure classification from an error chain.
func KindOf(err error) (Kind, bool) {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind, true
	}
	return 0, false
}

// AttemptCount returns how many candidates a failed fetch tried, zero when
// the error is not a FetchError.
func AttemptCount(err error) int {
	var fe *FetchError
	if errors.As(err, &fe) {
		return len(fe.Diagnostics)
	}
	return 0
}

// classify derives the composite Kind from per-candidate diagnostics.
func classify(diags []Diagnostic) Kind {
	if len(diags) == 0 {
		return KindExhausted
	}
	allNotFound := true
	allTransport := true
	for _, d := range diags {
		switch {
		case d.Status == 401 || d.Status == 403:
			return KindForbidden
		case d.Status == 404 || d.Status == 410:
			allTransport = false
		case d.Status == 0:
			allNotFound = false
		default:
			allNotFound = false
			allTransport = false
		}
	}
	if allNotFound {
		return KindNotFound
	}
	if allTransport {
		return KindUnreachable
	}
	return KindExhausted
}
