//go:build !spawndebug

package spawn

const strictPreconditions = false
