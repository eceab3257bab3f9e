package main

import (
	"errors"
	"fmt"
	"strings"
)

var errNotInGitRepository = errors.New("not in a git repository")

var (
	errAmbiguousParent   = errors.New("ambiguous parent branch")
	errNoDefaultRef      = errors.New("default base ref not found")
	errBranchExists      = errors.New("branch already exists")
	errInvalidBranchName = errors.New("invalid branch name")
	errInvalidConfig     = errors.New("invalid config")
	errUsage             = errors.New("usage")
)

// ResolutionError reports why no base ref could be chosen for a ticket.
// Kind is errAmbiguousParent or errNoDefaultRef.
type ResolutionError struct {
	Kind       error
	TicketID   int
	Ref        string
	Candidates []string
}

func (e *ResolutionError) Error() string {
	switch {
	case errors.Is(e.Kind, errAmbiguousParent):
		return fmt.Sprintf("ticket #%d: parent branch %s matches several refs: %s", e.TicketID, e.Ref, strings.Join(e.Candidates, ", "))
	case errors.Is(e.Kind, errNoDefaultRef):
		return fmt.Sprintf("ticket #%d: default base ref %q does not exist", e.TicketID, e.Ref)
	default:
		return fmt.Sprintf("ticket #%d: %v", e.TicketID, e.Kind)
	}
}

func (e *ResolutionError) Unwrap() error {
	return e.Kind
}

// FetchError wraps any failure to obtain ticket data from the tracker.
type FetchError struct {
	TicketID int
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("ticket #%d: %v", e.TicketID, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// CreationError wraps a failure to create the branch in the local repository.
type CreationError struct {
	Branch  string
	BaseRef string
	Err     error
}

func (e *CreationError) Error() string {
	return fmt.Sprintf("create branch %q from %q: %v", e.Branch, e.BaseRef, e.Err)
}

func (e *CreationError) Unwrap() error {
	return e.Err
}

// usageError is a command-line mistake. It matches errUsage.
type usageError struct {
	msg string
}

func (e *usageError) Error() string {
	return e.msg
}

func (e *usageError) Unwrap() error {
	return errUsage
}

func usageErrorf(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

// errorKind names the error category printed on stderr before the message.
func errorKind(err error) string {
	var fetchErr *FetchError
	var creationErr *CreationError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &fetchErr):
		return "fetch"
	case errors.Is(err, errAmbiguousParent):
		return "ambiguous-parent"
	case errors.Is(err, errNoDefaultRef):
		return "no-default-ref"
	case errors.As(err, &creationErr):
		return "creation"
	case errors.Is(err, errInvalidBranchName):
		return "naming"
	case errors.Is(err, errInvalidConfig):
		return "config"
	case errors.Is(err, errUsage):
		return "usage"
	case errors.Is(err, errNotInGitRepository):
		return "git"
	default:
		return "error"
	}
}
