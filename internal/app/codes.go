package app

import (
	"math/rand"
	"strconv"
)

// newJoinCode returns a human-typeable 6-digit PIN. Uniqueness among
// non-finished sessions is the store's job; callers retry on collision.
func newJoinCode() string {
	return strconv.Itoa(100000 + rand.Intn(900000))
}
