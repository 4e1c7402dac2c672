package services

import "strings"

// naturalCompare orders strings treating runs of ASCII digits as numbers,
// so "file2" sorts before "file10". Whitespace is skipped while comparing.
// When every compared position matches, the shorter string sorts first.
func naturalCompare(s1, s2 string) int {
	i, j := 0, 0
	for i < len(s1) && j < len(s2) {
		for i < len(s1) && isSpace(s1[i]) {
			i++
		}
		for j < len(s2) && isSpace(s2[j]) {
			j++
		}

		if i >= len(s1) || j >= len(s2) {
			break
		}

		if isDigit(s1[i]) && isDigit(s2[j]) {
			start1, start2 := i, j
			for i < len(s1) && isDigit(s1[i]) {
				i++
			}
			for j < len(s2) && isDigit(s2[j]) {
				j++
			}
			if c := compareDigits(s1[start1:i], s2[start2:j]); c != 0 {
				return c
			}
			continue
		}

		if s1[i] != s2[j] {
			if s1[i] < s2[j] {
				return -1
			}
			return 1
		}
		i++
		j++
	}

	switch {
	case len(s1) < len(s2):
		return -1
	case len(s1) > len(s2):
		return 1
	default:
		return 0
	}
}

// naturalLess reports whether s1 sorts before s2 in natural order
func naturalLess(s1, s2 string) bool {
	return naturalCompare(s1, s2) < 0
}

// compareDigits compares two digit runs numerically without parsing them,
// so runs longer than an int64 still order correctly.
func compareDigits(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}
