package utils

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"strconv"
)

// NewOrderNo returns a 13-digit numeric order number: unix seconds modulo
// 1e9 plus a 4-digit random suffix. Numeric so gateway adapters that want
// an int64 order code (payOS does) can parse it back, unique enough that
// the database uniqueIndex on order_no catches the rare collision.
func NewOrderNo(nowUnix int64) string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	suffix := binary.BigEndian.Uint64(b[:])%9000 + 1000
	return fmt.Sprintf("%09d%04d", nowUnix%1_000_000_000, suffix)
}

// OrderNoToCode parses an order number into the int64 order code gateways
// expect. Returns an error for anything that is not purely numeric.
func OrderNoToCode(orderNo string) (int64, error) {
	code, err := strconv.ParseInt(orderNo, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("order no %q is not numeric: %w", orderNo, err)
	}
	return code, nil
}
