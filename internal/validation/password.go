package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// MinPasswordLength is the shortest password accepted
	MinPasswordLength = 8
	// MaxSimilarity is the quick ratio at which a password counts as too close to a user attribute
	MaxSimilarity = 0.7
)

var attributeSplit = regexp.MustCompile(`\W+`)

// UserAttribute is a piece of user data a password must not resemble
type UserAttribute struct {
	Name  string // as shown in the message, e.g. "username"
	Value string
}

// PasswordRule returns a message when password breaks the rule
type PasswordRule func(password string, attrs []UserAttribute) string

// PasswordRules are checked in order and every failure is reported
var PasswordRules = []PasswordRule{
	similarityRule,
	minimumLengthRule,
	commonPasswordRule,
	numericPasswordRule,
}

// Password validates password against PasswordRules and records every
// failure under field
func (e *ValidationError) Password(field, password string, attrs ...UserAttribute) {
	for _, msg := range PasswordProblems(password, attrs...) {
		e.Add(field, msg)
	}
}

// PasswordProblems lists the messages of every rule password breaks
func PasswordProblems(password string, attrs ...UserAttribute) []string {
	var problems []string
	for _, rule := range PasswordRules {
		if msg := rule(password, attrs); msg != "" {
			problems = append(problems, msg)
		}
	}
	return problems
}

func minimumLengthRule(password string, _ []UserAttribute) string {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return fmt.Sprintf("This password is too short. It must contain at least %d characters.", MinPasswordLength)
	}
	return ""
}

func numericPasswordRule(password string, _ []UserAttribute) string {
	if password == "" {
		return ""
	}
	for _, r := range password {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return "This password is entirely numeric."
}

func commonPasswordRule(password string, _ []UserAttribute) string {
	if commonPasswords[strings.ToLower(strings.TrimSpace(password))] {
		return "This password is too common."
	}
	return ""
}

func similarityRule(password string, attrs []UserAttribute) string {
	lower := strings.ToLower(password)
	for _, attr := range attrs {
		value := strings.ToLower(attr.Value)
		if value == "" {
			continue
		}

		parts := append(attributeSplit.Split(value, -1), value)
		for _, part := range parts {
			if part == "" || exceedsLengthRatio(lower, part) {
				continue
			}
			if quickRatio(lower, part) >= MaxSimilarity || (len(part) >= 3 && strings.Contains(lower, part)) {
				return fmt.Sprintf("The password is too similar to the %s.", attr.Name)
			}
		}
	}
	return ""
}

// exceedsLengthRatio skips comparisons that cannot reach MaxSimilarity
// because the password is much longer than the attribute
func exceedsLengthRatio(password, value string) bool {
	pwdLen := utf8.RuneCountInString(password)
	valueLen := utf8.RuneCountInString(value)
	bound := MaxSimilarity / 2 * float64(pwdLen)
	return pwdLen >= 10*valueLen && float64(valueLen) < bound
}

// quickRatio is an upper bound of the sequence similarity of a and b:
// twice the size of their character multiset intersection over the total length
func quickRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1
	}

	avail := make(map[rune]int, len(rb))
	for _, r := range rb {
		avail[r]++
	}
	matches := 0
	for _, r := range ra {
		if avail[r] > 0 {
			avail[r]--
			matches++
		}
	}
	return 2 * float64(matches) / float64(total)
}

var commonPasswords = func() map[string]bool {
	list := []string{
		"123456", "password", "12345678", "qwerty", "123456789", "12345", "1234", "111111",
		"1234567", "dragon", "123123", "baseball", "abc123", "football", "monkey", "letmein",
		"696969", "shadow", "master", "666666", "qwertyuiop", "123321", "mustang", "1234567890",
		"michael", "654321", "superman", "1qaz2wsx", "7777777", "121212", "000000", "qazwsx",
		"123qwe", "killer", "trustno1", "jordan", "jennifer", "zxcvbnm", "asdfgh", "hunter",
		"buster", "soccer", "harley", "batman", "andrew", "tigger", "sunshine", "iloveyou",
		"2000", "charlie", "robert", "thomas", "hockey", "ranger", "daniel", "starwars",
		"klaster", "112233", "george", "computer", "michelle", "jessica", "pepper", "1111",
		"zxcvbn", "555555", "11111111", "131313", "freedom", "777777", "pass", "maggie",
		"159753", "aaaaaa", "ginger", "princess", "joshua", "cheese", "amanda", "summer",
		"love", "ashley", "nicole", "chelsea", "biteme", "matthew", "access", "yankees",
		"987654321", "dallas", "austin", "thunder", "taylor", "matrix", "mobilemail", "mom",
		"monitor", "monitoring", "montana", "moon", "moscow", "password1", "password12",
		"password123", "passw0rd", "p@ssw0rd", "welcome", "welcome1", "admin", "admin123",
		"administrator", "changeme", "secret", "qwerty123", "qwerty12", "iloveyou1", "abcdefgh",
		"abcd1234", "1q2w3e4r", "1q2w3e4r5t", "zaq12wsx", "asdfghjkl", "football1", "baseball1",
		"sunshine1", "princess1", "superman1", "letmein1", "trustno1!", "whatever", "starwars1",
		"88888888", "87654321", "12341234", "11223344", "00000000", "99999999", "q1w2e3r4",
		"qweasdzxc", "google", "internet", "samsung", "blahblah", "football12", "hello123",
	}
	m := make(map[string]bool, len(list))
	for _, p := range list {
		m[p] = true
	}
	return m
}()
