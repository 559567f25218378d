package session

// Status is the authentication state of the CLI.
type Status int

const (
	// Unknown is the initial state, before the stored session has been read.
	Unknown Status = iota
	Authenticated
	Unauthenticated
)

func (s Status) String() string {
	switch s {
	case Authenticated:
		return "authenticated"
	case Unauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}
