// Package hashutil computes the content hashes and mtimes the change
// detector keys off. Hashing is SHA-1 over raw file bytes — no
// normalization — so that sha1(localBytes) is directly comparable to an
// IndexRecord's stored content_sha1.
package hashutil

import (
	"crypto/sha1"
	"encoding/hex"
	"os"
)

// SHA1 returns the lowercase hex SHA-1 digest of b.
func SHA1(b []byte) string {
	sum := sha1.Sum(b)
	return hex.EncodeToString(sum[:])
}

// SHA1File reads path and returns its SHA-1 digest plus the nanosecond
// mtime observed at read time.
func SHA1File(path string) (digest string, mtimeNS int64, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", 0, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", 0, err
	}
	return SHA1(data), info.ModTime().UnixNano(), nil
}
