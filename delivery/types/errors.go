package types

// PermanentError fails an activity without retries: a missing or empty
// confirmation code issuer, or an archive that cannot take the ticket.
// Its type name is listed in the workflow's NonRetryableErrorTypes.
type PermanentError struct {
	Msg string
}

func (e *PermanentError) Error() string {
	return "permanent: " + e.Msg
}

// ValidationError represents rejected user input; it is never retried
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}
