package exchange

import (
	"bytes"
	"runtime"
	"strconv"
)

// goid returns the current goroutine id. The engine uses it only to tell a
// nested call out of a collaborator callback (same goroutine, must be
// refused) apart from an independent concurrent call (different goroutine,
// queues on the mutex).
func goid() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	// "goroutine 123 [running]: ..."
	fields := bytes.Fields(buf[:n])
	if len(fields) < 2 {
		return 0
	}
	id, err := strconv.ParseUint(string(fields[1]), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
