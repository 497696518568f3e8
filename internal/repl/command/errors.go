package command

// GrammarError reports a malformed command line.
type GrammarError struct {
	// Message is the human-readable diagnostic.
	Message string
	// Token is the offending token, empty when the problem is a missing one.
	Token string
}

func (e *GrammarError) Error() string {
	return e.Message
}
