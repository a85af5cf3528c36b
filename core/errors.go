package core

// ErrorKind classifies why an operation was rejected. Every rejection is
// caller-recoverable: a failed operation leaves no partial state behind.
type ErrorKind int

const (
	// KindAuthorization: caller is not the owner, seller, or administrator,
	// or has not granted the market the required transfer authorization.
	KindAuthorization ErrorKind = iota
	// KindValidation: malformed listing parameters or an out-of-order bid.
	KindValidation
	// KindState: the listing is absent, already ended, or blocked by bids.
	KindState
	// KindCollaborator: a failure reported by the token ledger or asset
	// registry, bubbled through unchanged.
	KindCollaborator
)

func (k ErrorKind) String() string {
	switch k {
	case KindAuthorization:
		return "authorization"
	case KindValidation:
		return "validation"
	case KindState:
		return "state"
	case KindCollaborator:
		return "collaborator"
	default:
		return "unknown"
	}
}

// MarketError reports a rejected operation. Reason strings are part of the
// external contract: callers match on them verbatim.
type MarketError struct {
	Kind   ErrorKind
	Reason string
	cause  error
}

func (e *MarketError) Error() string {
	return e.Reason
}

func (e *MarketError) Unwrap() error {
	return e.cause
}

func authorizationErr(reason string) *MarketError {
	return &MarketError{Kind: KindAuthorization, Reason: reason}
}

func validationErr(reason string) *MarketError {
	return &MarketError{Kind: KindValidation, Reason: reason}
}

func stateErr(reason string) *MarketError {
	return &MarketError{Kind: KindState, Reason: reason}
}

func collaboratorErr(reason string, cause error) *MarketError {
	return &MarketError{Kind: KindCollaborator, Reason: reason, cause: cause}
}
