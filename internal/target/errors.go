package target

import "fmt"

// DefinitionError reports a mistake in a rule or target definition, such as
// a placeholder referencing a missing configuration variable. It aborts the
// current rule's resolution; the fix belongs to the rule author.
type DefinitionError struct {
	msg string
}

func (e *DefinitionError) Error() string { return e.msg }

func definitionErrorf(format string, args ...any) error {
	return &DefinitionError{msg: fmt.Sprintf(format, args...)}
}

// ConsistencyError reports a violated framework invariant: ambiguous handler
// suffixes at registry construction, no handler for an already-resolved
// identity, and the like. Always fatal.
type ConsistencyError struct {
	msg string
}

func (e *ConsistencyError) Error() string { return e.msg }

func consistencyErrorf(format string, args ...any) error {
	return &ConsistencyError{msg: fmt.Sprintf(format, args...)}
}

// RunError reports a failure while a build action interacts with a cooked
// value, such as handing a value of the wrong type to a deferred target.
// Fatal to that rule's execution.
type RunError struct {
	msg string
}

func (e *RunError) Error() string { return e.msg }

func runErrorf(format string, args ...any) error {
	return &RunError{msg: fmt.Sprintf(format, args...)}
}
