package normalizer

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

const fingerprintLen = 32

// separators that do not change the meaning of a title, company or location
var separatorReplacer = strings.NewReplacer(
	"-", " ", ",", " ", "/", " ", "(", " ", ")", " ", "|", " ",
	"–", " ", "—", " ", ";", " ", ".", " ",
)

// Fingerprint is the identity key of a posting. It ignores casing, whitespace,
// separator punctuation and the order of location tokens.
func Fingerprint(title, company, location string) string {
	locationTokens := tokens(location)
	sort.Strings(locationTokens)

	key := strings.Join(tokens(title), " ") + "|" +
		strings.Join(tokens(company), " ") + "|" +
		strings.Join(locationTokens, " ")

	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])[:fingerprintLen]
}

func tokens(s string) []string {
	return strings.Fields(separatorReplacer.Replace(strings.ToLower(s)))
}

// collapse trims s and replaces every whitespace run with a single space.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
