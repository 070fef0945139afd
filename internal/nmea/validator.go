package nmea

import (
	"fmt"
	"strings"

	gonmea "github.com/adrianmo/go-nmea"
)

const checksumLen = 2

// Extract locates the sentence embedded in line and returns the payload
// between '$' and '*' together with the two characters following '*'.
// Anything before '$' or after the checksum token is ignored.
func Extract(line string) (payload, checksum string, err error) {
	start := strings.IndexByte(line, '$')
	if start < 0 {
		return "", "", ErrNoSentence
	}

	end := strings.IndexByte(line[start:], '*')
	if end < 0 {
		return "", "", ErrNoSentence
	}
	end += start

	if len(line)-(end+1) < checksumLen {
		return "", "", ErrNoSentence
	}

	return line[start+1 : end], line[end+1 : end+1+checksumLen], nil
}

// VerifyChecksum computes the XOR checksum of payload and compares it
// case-insensitively with expected.
func VerifyChecksum(payload, expected string) (computed string, matched bool) {
	computed = gonmea.Checksum(payload)
	return computed, strings.EqualFold(computed, expected)
}

// Validate extracts the sentence from line and verifies its checksum.
func Validate(line string) (computed string, matched bool, err error) {
	payload, checksum, err := Extract(line)
	if err != nil {
		return "", false, err
	}
	computed, matched = VerifyChecksum(payload, checksum)
	return computed, matched, nil
}

// Parse validates line and splits the sentence into its talker and fields.
// Lines without a sentence return ErrNoSentence and lines failing the
// checksum return ErrChecksumMismatch.
func Parse(line string) (Sentence, error) {
	payload, checksum, err := Extract(line)
	if err != nil {
		return Sentence{}, err
	}

	computed, ok := VerifyChecksum(payload, checksum)
	if !ok {
		return Sentence{}, fmt.Errorf("%w: got %s, computed %s", ErrChecksumMismatch, checksum, computed)
	}

	fields := strings.Split(payload, ",")
	return Sentence{
		Talker:   fields[0],
		Fields:   fields[1:],
		Checksum: computed,
	}, nil
}
