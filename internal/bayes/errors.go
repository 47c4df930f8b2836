package bayes

import "errors"

// Construction errors.
var (
	ErrInvalidDomain     = errors.New("invalid domain")
	ErrShapeMismatch     = errors.New("cpt shape mismatch")
	ErrNotNormalized     = errors.New("cpt column does not sum to 1")
	ErrUnknownVariable   = errors.New("unknown variable")
	ErrDuplicateCPT      = errors.New("variable already has a cpt")
	ErrMissingCPT        = errors.New("variable has no cpt")
	ErrCyclicDependency  = errors.New("cyclic dependency")
	ErrModelFrozen       = errors.New("model is frozen")
	ErrModelNotValidated = errors.New("model has not been validated")
)

// Query errors.
var (
	ErrUnknownQueryVariable = errors.New("unknown query variable")
	ErrConflictingEvidence  = errors.New("variable is both queried and observed")
	ErrEmptyQuery           = errors.New("query has no variables")
	ErrDegenerateEvidence   = errors.New("evidence has zero probability under the model")
)
