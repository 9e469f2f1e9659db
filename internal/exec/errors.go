package exec

import (
	"github.com/pkg/errors"

	"sql5300/internal/btree"
	"sql5300/internal/page"
)

// ErrorKind classifies the language-neutral error taxonomy of spec §7.
type ErrorKind int

const (
	// KindNoRoom mirrors page.ErrNoRoom: an insert/update can't fit on a page.
	KindNoRoom ErrorKind = iota
	// KindRelationError is a catalog inconsistency, type mismatch, unknown
	// column/table, or duplicate create surfacing out of the storage layers.
	KindRelationError
	// KindExecError is a user-visible executor failure: unsupported
	// statement shape, duplicate table, schema-table protection, etc.
	KindExecError
	// KindUnimplemented covers features explicitly out of scope: BTree
	// range/delete (btree.ErrUnimplemented).
	KindUnimplemented
)

func (k ErrorKind) String() string {
	switch k {
	case KindNoRoom:
		return "NoRoom"
	case KindRelationError:
		return "RelationError"
	case KindExecError:
		return "ExecError"
	case KindUnimplemented:
		return "Unimplemented"
	default:
		return "UnknownErrorKind"
	}
}

// kindedError pairs a Kind with the wrapped cause, letting errors.Is/As
// discriminate while Unwrap keeps the original page/catalog error reachable
// through the causal chain.
type kindedError struct {
	kind  ErrorKind
	cause error
}

func (e *kindedError) Error() string { return e.cause.Error() }
func (e *kindedError) Unwrap() error { return e.cause }

// Kind reports err's ErrorKind, defaulting to KindExecError for errors this
// package didn't originate (e.g. a bare I/O error bubbling up unwrapped).
func Kind(err error) ErrorKind {
	var ke *kindedError
	if errors.As(err, &ke) {
		return ke.kind
	}
	return KindExecError
}

func newRelationError(cause error) error {
	return &kindedError{kind: KindRelationError, cause: cause}
}

func newExecError(format string, args ...interface{}) error {
	return &kindedError{kind: KindExecError, cause: errors.Errorf(format, args...)}
}

// wrapStorageError implements spec §7's propagation rule: page-level errors
// surface through HeapTable/BTreeIndex as either a recovered retry or a
// RelationError. NoRoom that survives a table's own retry logic keeps its
// own KindNoRoom, and btree.ErrUnimplemented becomes KindUnimplemented;
// everything else is a RelationError.
func wrapStorageError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, page.ErrNoRoom) {
		return &kindedError{kind: KindNoRoom, cause: err}
	}
	if errors.Is(err, btree.ErrUnimplemented) {
		return &kindedError{kind: KindUnimplemented, cause: err}
	}
	return newRelationError(err)
}

// toExecError converts a RelationError to the user-visible ExecError spec §7
// mandates, prefixed "DbRelationError:". Other kinds pass through unchanged.
func toExecError(err error) error {
	if err == nil {
		return nil
	}
	if Kind(err) == KindRelationError {
		return &kindedError{kind: KindExecError, cause: errors.Errorf("DbRelationError: %v", err)}
	}
	return err
}
