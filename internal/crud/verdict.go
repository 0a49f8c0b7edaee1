package crud

// Verdict is the three-way outcome of an ownership check. Every operation
// runs the check before touching the resource; mutations additionally run it
// before opening a transaction.
type Verdict int

const (
	Authorized Verdict = iota
	Forbidden
	NotFound
)

func (v Verdict) String() string {
	switch v {
	case Authorized:
		return "authorized"
	case Forbidden:
		return "forbidden"
	case NotFound:
		return "not found"
	default:
		return "unknown"
	}
}

// Err maps the verdict to its sentinel error, nil for Authorized.
func (v Verdict) Err() error {
	switch v {
	case Forbidden:
		return ErrForbidden
	case NotFound:
		return ErrNotFound
	default:
		return nil
	}
}
