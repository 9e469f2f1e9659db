package page

import "errors"

// ErrNoRoom is returned by Add/Put when a record cannot fit on the page.
// Callers at the HeapTable level recover from it by allocating a fresh page.
var ErrNoRoom = errors.New("page: no room for record")

// ErrDeleted is returned by Put when the target record id names a
// tombstoned slot. Get reports such a record with ok=false instead, and Del
// treats it as already deleted.
var ErrDeleted = errors.New("page: record is deleted")
