package resolve

import (
	"fmt"
	"strings"
)

// UnresolvedReferenceError names a token nothing in the tree could match.
type UnresolvedReferenceError struct {
	Token string
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("unresolved reference ##%s##", e.Token)
}

// CyclicReferenceError reports a reference chain that leads back to one of
// its own tokens.  Chain starts and ends with the repeated token.
type CyclicReferenceError struct {
	Chain []string
}

func (e *CyclicReferenceError) Error() string {
	return "cyclic reference " + strings.Join(e.Chain, " -> ")
}
