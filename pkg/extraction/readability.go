// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package extraction

import (
	"strings"
	"unicode"
)

const (
	// MinReadableLength is the shortest text (in runes) that can be readable.
	MinReadableLength = 50
	// SampleSize is how many leading runes are scored.
	SampleSize = 1000

	minLetterRatio      = 0.25
	minSpaceRatio       = 0.05
	maxReplacementRatio = 0.10
)

// Assessment holds the individual readability measurements for a text
// sample. Each threshold is an independent necessary condition.
type Assessment struct {
	Length           int      `json:"length"`
	SampleLength     int      `json:"sample_length"`
	LetterRatio      float64  `json:"letter_ratio"`
	SpaceRatio       float64  `json:"space_ratio"`
	ReplacementRatio float64  `json:"replacement_ratio"`
	BinarySignature  bool     `json:"binary_signature"`
	TooShort         bool     `json:"too_short"`
	Readable         bool     `json:"readable"`
	FailedConditions []string `json:"failed_conditions,omitempty"`
}

// IsReadable reports whether text looks like human-readable prose rather
// than binary garbage.
func IsReadable(text string) bool {
	return Assess(text).Readable
}

// Assess scores text against the readability thresholds.
func Assess(text string) Assessment {
	runes := []rune(text)
	a := Assessment{Length: len(runes)}

	if len(runes) < MinReadableLength {
		a.TooShort = true
		a.FailedConditions = []string{"too_short"}
		return a
	}

	sample := runes
	if len(sample) > SampleSize {
		sample = sample[:SampleSize]
	}
	a.SampleLength = len(sample)
	a.BinarySignature = hasBinarySignature(string(sample))

	var letters, spaces, replacements int
	for _, r := range sample {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			letters++
		case unicode.IsSpace(r):
			spaces++
		case r == '\uFFFD':
			replacements++
		}
	}

	n := float64(len(sample))
	a.LetterRatio = float64(letters) / n
	a.SpaceRatio = float64(spaces) / n
	a.ReplacementRatio = float64(replacements) / n

	if a.LetterRatio <= minLetterRatio {
		a.FailedConditions = append(a.FailedConditions, "letter_ratio")
	}
	if a.SpaceRatio <= minSpaceRatio {
		a.FailedConditions = append(a.FailedConditions, "space_ratio")
	}
	if a.ReplacementRatio >= maxReplacementRatio {
		a.FailedConditions = append(a.FailedConditions, "replacement_ratio")
	}
	if a.BinarySignature {
		a.FailedConditions = append(a.FailedConditions, "binary_signature")
	}
	a.Readable = len(a.FailedConditions) == 0
	return a
}

// sampleOf returns the leading SampleSize runes of text.
func sampleOf(text string) string {
	n := 0
	for i := range text {
		if n == SampleSize {
			return text[:i]
		}
		n++
	}
	return text
}

// hasBinarySignature reports whether sample carries a PDF or ZIP magic
// marker or a control character other than tab, newline and carriage return.
func hasBinarySignature(sample string) bool {
	if strings.Contains(sample, "%PDF") || strings.Contains(sample, "PK\x03\x04") {
		return true
	}
	for _, r := range sample {
		if isControl(r) && r != '\t' && r != '\n' && r != '\r' {
			return true
		}
	}
	return false
}
