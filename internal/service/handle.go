package service

import (
	"encoding/base32"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// handleSize is the digest length backing a public handle
const handleSize = 8

var handleEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// HandleFor derives the stable anonymized display handle of a user on public leaderboards.
// The salt keys the hash so handles cannot be reversed by hashing known user IDs.
func HandleFor(salt, userID string) string {
	var key []byte
	if salt != "" {
		key = []byte(salt)
		if len(key) > blake2b.Size {
			sum := blake2b.Sum256(key)
			key = sum[:]
		}
	}
	h, err := blake2b.New(handleSize, key)
	if err != nil {
		// only reachable with an oversized key, which is hashed down above
		panic(err)
	}
	_, _ = h.Write([]byte(userID))
	return "player-" + strings.ToLower(handleEncoding.EncodeToString(h.Sum(nil)))
}
