package redis

import (
	"context"
	"math/rand"
	"time"
)

// Pairing codes are short-lived one-time tokens a device displays so an admin
// can claim it. The alphabet omits easily confused characters (O/0, I/1).
const (
	pairCodeCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	pairCodeLength  = 6

	PairCodeTTL = 5 * time.Minute
)

func pairCodeKey(code string) string {
	return "pair:" + code
}

// NewPairCode generates a code and stores the device identifier under it.
func NewPairCode(ctx context.Context, deviceID string) string {
	code := make([]byte, pairCodeLength)
	for i := range code {
		code[i] = pairCodeCharset[rand.Intn(len(pairCodeCharset))]
	}
	Set(ctx, pairCodeKey(string(code)), deviceID, PairCodeTTL)
	return string(code)
}

// ResolvePairCode returns the device identifier a code was issued for.
func ResolvePairCode(ctx context.Context, code string) (string, bool) {
	return Get(ctx, pairCodeKey(code))
}

// ConsumePairCode deletes a code after a successful claim.
func ConsumePairCode(ctx context.Context, code string) {
	Del(ctx, pairCodeKey(code))
}
