package test

import (
	"math/rand"
	"strings"
	"sync"
	"time"
)

const idAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

var (
	rngMu sync.Mutex
	rng   = rand.New(rand.NewSource(time.Now().UnixNano()))
)

// RandomOrderID returns a gateway style order id such as "order_x8Kq2mZt".
func RandomOrderID() string {
	return "order_" + randomFrom(idAlphabet, 8+randomIntn(7))
}

// RandomDigits returns n decimal digits, useful for card number prefixes.
func RandomDigits(n int) string {
	if n <= 0 {
		return ""
	}
	return randomFrom("0123456789", n)
}

func randomFrom(alphabet string, n int) string {
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		b.WriteByte(alphabet[randomIntn(len(alphabet))])
	}
	return b.String()
}

func randomIntn(n int) int {
	rngMu.Lock()
	defer rngMu.Unlock()
	return rng.Intn(n)
}
