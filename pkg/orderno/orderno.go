// Package orderno generates the externally visible order, transaction and
// request identifiers. The application order number format
// (timestamp + zero-padded sequence + random suffix) is part of the vendor
// contract: it is the idempotency key the vendor sees for an order.
package orderno

import (
	"crypto/md5"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"sync/atomic"
	"time"
)

var seq uint64

// NewAppOrderNo returns a new application order number, e.g.
// "20260901154502" + "0042" + "7319".
func NewAppOrderNo() string {
	n := atomic.AddUint64(&seq, 1) % 10000
	return fmt.Sprintf("%s%04d%04d", time.Now().Format("20060102150405"), n, randN(10000))
}

// NewTxnNo returns a new ledger transaction number.
func NewTxnNo() string {
	n := atomic.AddUint64(&seq, 1) % 10000
	return fmt.Sprintf("T%s%04d%04d", time.Now().Format("20060102150405"), n, randN(10000))
}

// NewReqID returns a fresh per-request token for the vendor envelope:
// an MD5 hex digest of the current time plus random bits.
func NewReqID() string {
	var buf [24]byte
	binary.BigEndian.PutUint64(buf[:8], uint64(time.Now().UnixNano()))
	_, _ = rand.Read(buf[8:])
	return fmt.Sprintf("%x", md5.Sum(buf[:]))
}

func randN(max uint64) uint64 {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return binary.BigEndian.Uint64(b[:]) % max
}
