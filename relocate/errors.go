package relocate

import "errors"

// Error kinds. Callers wrap these with fmt.Errorf("%w: ...") and test with errors.Is.
var (
	// ErrConnection means the directory or the latency store is unreachable. Fatal at startup.
	ErrConnection = errors.New("connection error")
	// ErrConsistency means the directory references an unknown node or instance.
	// The current cycle is aborted.
	ErrConsistency = errors.New("consistency error")
	// ErrKeyNotFound means a latency sample is absent. Callers treat it as +Inf.
	ErrKeyNotFound = errors.New("key not found")
	// ErrSerialization means a directory record could not be decoded. The entry is skipped.
	ErrSerialization = errors.New("serialization error")
	// ErrExternalCommand means a migration subprocess exited non-zero.
	ErrExternalCommand = errors.New("external command error")
)
