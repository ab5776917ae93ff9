package flow

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DueAtLayout is the fixed textual format for reminder due times,
// interpreted in the bot's civil timezone.
const DueAtLayout = "2006-01-02 15:04"

var (
	phonePattern = regexp.MustCompile(`^\+?\d{10,15}$`)
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+$`)

	// prohibitedLinkPattern blocks a known spam invite link inside GPT chat.
	prohibitedLinkPattern = regexp.MustCompile(`(?i)https://discord\.gg/Gy4xbacfES`)
)

// ValidPhone reports whether the input is a digit string of length 10-15
// with an optional leading plus.
func ValidPhone(phone string) bool {
	return phonePattern.MatchString(strings.TrimSpace(phone))
}

// ValidEmail reports whether the input has valid address syntax.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(strings.TrimSpace(email))
}

// ContainsProhibitedLink reports whether the text carries a blocked link.
func ContainsProhibitedLink(text string) bool {
	return prohibitedLinkPattern.MatchString(text)
}

// ParseDueAt parses a due time in DueAtLayout within the given timezone.
func ParseDueAt(text string, loc *time.Location) (time.Time, error) {
	dueAt, err := time.ParseInLocation(DueAtLayout, strings.TrimSpace(text), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse due time: %w", err)
	}
	return dueAt, nil
}

// ParseIndex parses a positive 1-based list position. It fails on anything
// that is not a plain positive integer string.
func ParseIndex(text string) (int, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, false
	}
	for _, r := range text {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(text)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
