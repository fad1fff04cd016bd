package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"
)

const base36Chars = "0123456789abcdefghijklmnopqrstuvwxyz"

// GenerateOrderNumber returns an identifier of the form
// ORD-<millis>-<random-base36>. The millisecond prefix plus the random
// suffix keep it unique and short enough to print on a pickup slip.
func GenerateOrderNumber() string {
	return fmt.Sprintf("ORD-%d-%s", time.Now().UnixMilli(), randomBase36(6))
}

// QRCodeFor derives the pickup QR payload from an order number.
func QRCodeFor(orderNumber string) string {
	return "QR-" + orderNumber
}

func randomBase36(n int) string {
	var sb strings.Builder
	max := big.NewInt(int64(len(base36Chars)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails when the OS entropy source is broken;
			// fall back to a time-derived digit rather than panic.
			sb.WriteByte(base36Chars[time.Now().UnixNano()%36])
			continue
		}
		sb.WriteByte(base36Chars[idx.Int64()])
	}
	return sb.String()
}
