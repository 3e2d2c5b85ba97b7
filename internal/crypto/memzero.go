package crypto

import "e2egateway/internal/util/memzero"

// Wipe zeroes b. Best effort: copies made by the runtime are not reached.
func Wipe(b []byte) { memzero.Bytes(b) }
