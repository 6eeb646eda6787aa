package module

import "errors"

// ErrWordlist marks a setup failure that should be treated as an expected,
// non-bug condition (e.g. a missing wordlist file) and coerced to a soft
// failure rather than a hard failure.
var ErrWordlist = errors.New("wordlist unavailable")

// ErrScanCancelled marks a cancellation observed inside the worker loop.
// It is logged at verbose level and causes the loop to exit cleanly,
// distinct from any other error which transitions the module to the
// errored state.
var ErrScanCancelled = errors.New("scan cancelled")
