// Package vercode generates and checks the six-digit verification codes
// mailed to users for account activation, email changes and password
// resets. A code is bound to one purpose so a code issued for one flow
// cannot confirm another.
package vercode

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"strconv"
)

// Purpose tags what a pending verification code may confirm.
type Purpose string

const (
	PurposeActivation    Purpose = "activation"
	PurposeEmailChange   Purpose = "email_change"
	PurposePasswordReset Purpose = "password_reset"
)

// Codes run from codeMin to codeMin+codeSpan-1 so they always print as
// six digits.
const (
	codeMin  = 100000
	codeSpan = 900000
)

// Generate draws a uniformly random six-digit code from crypto/rand.
func Generate() (int, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeSpan))
	if err != nil {
		return 0, fmt.Errorf("generating verification code: %w", err)
	}
	return codeMin + int(n.Int64()), nil
}

// Matches compares a submitted code against the stored one. A cleared
// (nil) stored code never matches, so a consumed code cannot be replayed.
// The digit comparison runs in constant time.
func Matches(stored *int, submitted int) bool {
	if stored == nil {
		return false
	}
	a := strconv.Itoa(*stored)
	b := strconv.Itoa(submitted)
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
