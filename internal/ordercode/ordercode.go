// Package ordercode generates the short codes customers quote at pickup.
package ordercode

import (
	"crypto/rand"
	"math/big"
)

// Prefix marks codes generated by this service.
const Prefix = "KCS-"

// alphabet omits 0/O/1/I/L to keep codes readable over the phone.
const alphabet = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"

const codeLength = 6

// New returns a fresh order code such as "KCS-7XK2MP". Uniqueness is
// enforced by the orders.code unique index; callers retry on conflict.
func New() string {
	return Prefix + Random(codeLength)
}

// Random returns n characters drawn from the unambiguous alphabet using
// crypto/rand.
func Random(n int) string {
	max := big.NewInt(int64(len(alphabet)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails when the platform source is
			// broken, at which point nothing else works either.
			panic(err)
		}
		b[i] = alphabet[idx.Int64()]
	}
	return string(b)
}
