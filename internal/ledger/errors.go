package ledger

import "fmt"

// RejectKind classifies why an apply operation refused a mutation. Every
// kind is recoverable by user retry; the transport maps kinds to localized
// replies.
type RejectKind string

const (
	RejectValidation       RejectKind = "validation"
	RejectRateLimited      RejectKind = "rate_limited"
	RejectIncomplete       RejectKind = "incomplete_registration"
	RejectNoPending        RejectKind = "no_such_pending_entry"
	RejectAlreadyConfirmed RejectKind = "already_confirmed"
)

// Reject is the typed result of a refused apply_* call. The ledger state is
// guaranteed untouched when one is returned.
type Reject struct {
	Kind RejectKind
	Err  error
}

func (r *Reject) Error() string {
	if r.Err != nil {
		return fmt.Sprintf("%s: %v", r.Kind, r.Err)
	}
	return string(r.Kind)
}

func (r *Reject) Unwrap() error { return r.Err }

func reject(kind RejectKind, err error) *Reject {
	return &Reject{Kind: kind, Err: err}
}
