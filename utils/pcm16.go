// SPDX-License-Identifier: EPL-2.0

package utils

// Float32ToInt16 clamps x to [-1, 1] and scales it by 32767, so both
// extremes stay representable.
func Float32ToInt16(x float32) int16 {
	switch {
	case x > 1:
		x = 1
	case x < -1:
		x = -1
	}

	return int16(x * 32767.0)
}

// Float32sToInt16s converts min(len(dst), len(src)) samples and returns
// the count.
func Float32sToInt16s(dst []int16, src []float32) int {
	n := min(len(dst), len(src))
	for i, x := range src[:n] {
		dst[i] = Float32ToInt16(x)
	}

	return n
}

// Float32sToInts is Float32sToInt16s for the []int sample buffers used by
// go-audio.
func Float32sToInts(dst []int, src []float32) int {
	n := min(len(dst), len(src))
	for i, x := range src[:n] {
		dst[i] = int(Float32ToInt16(x))
	}

	return n
}
