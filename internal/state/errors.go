package state

// MissingKeyError is published (and returned by mutations) when an operation
// is called without the identifier it needs. No request is made.
type MissingKeyError string

func (e MissingKeyError) Error() string {
	return string(e)
}

const (
	ErrNoTeam        MissingKeyError = "No team found"
	ErrNoPlayer      MissingKeyError = "No player found"
	ErrNoStaff       MissingKeyError = "No staff member found"
	ErrNoGroup       MissingKeyError = "No group found"
	ErrNoRole        MissingKeyError = "No role found"
	ErrNoEvent       MissingKeyError = "No event found"
	ErrNoUser        MissingKeyError = "No user found"
	ErrNoPerformance MissingKeyError = "No performance found"
)

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
