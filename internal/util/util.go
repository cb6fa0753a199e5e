package util

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
)

const bytesInMegabyte = 1024 * 1024

func GetIDFromString(str *string) string {
	hasher := sha1.New()
	hasher.Write([]byte(*str))

	return hex.EncodeToString(hasher.Sum(nil))
}

// Megabytes formats a byte count as megabytes with two decimals.
func Megabytes(size int64) string {
	return fmt.Sprintf("%.2f", float64(size)/bytesInMegabyte)
}
