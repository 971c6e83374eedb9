// SPDX-License-Identifier: MIT

/*
Package bitint provides the power-of-2 helpers used to size FFT windows.

NextPowerOfTwo subtracts one before taking the bit length so that exact
powers of 2 are preserved:

	size 8: bits.Len(7) = 3, 1 << 3 = 8
	size 9: bits.Len(8) = 4, 1 << 4 = 16
*/
package bitint

import "math/bits"

// NextPowerOfTwo returns the smallest power of 2 >= size. Sizes below 1
// return 1.
//
//	Input  Output
//	128    128
//	200    256
//	0      1
func NextPowerOfTwo(size int) int {
	if size <= 0 {
		return 1
	}
	return 1 << bits.Len(uint(size-1))
}

// IsPowerOfTwo reports whether n is a positive power of 2.
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}
