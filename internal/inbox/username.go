package inbox

import (
	"regexp"
	"strings"
)

// usernameRegex constrains the local part of a disposable address.
var usernameRegex = regexp.MustCompile(`^[a-z0-9._-]{3,40}$`)

// reservedUsernames cannot be claimed as disposable inboxes.
var reservedUsernames = map[string]struct{}{
	"admin":         {},
	"administrator": {},
	"support":       {},
	"help":          {},
	"info":          {},
	"contact":       {},
	"postmaster":    {},
	"webmaster":     {},
	"hostmaster":    {},
	"abuse":         {},
	"noreply":       {},
	"no-reply":      {},
	"mailer-daemon": {},
	"root":          {},
	"security":      {},
	"ssl":           {},
	"ftp":           {},
	"mail":          {},
	"email":         {},
	"www":           {},
	"api":           {},
	"test":          {},
	"demo":          {},
	"billing":       {},
	"sales":         {},
	"marketing":     {},
	"newsletter":    {},
	"feedback":      {},
	"privacy":       {},
	"legal":         {},
	"terms":         {},
	"dmca":          {},
	"copyright":     {},
}

// NormalizeUsername lowercases and trims a raw username.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// IsValidUsername reports whether a normalized username is well-formed.
func IsValidUsername(username string) bool {
	return usernameRegex.MatchString(username)
}

// IsReservedUsername reports whether the username is on the deny list.
func IsReservedUsername(username string) bool {
	_, ok := reservedUsernames[strings.ToLower(username)]
	return ok
}

// ExtractUsername pulls the local part out of a recipient address for the
// given mail domain. It returns false when the address belongs to another
// domain or the local part is not a valid username.
func ExtractUsername(email, domain string) (string, bool) {
	atDomain := "@" + strings.ToLower(domain)
	lower := strings.ToLower(email)

	if !strings.HasSuffix(lower, atDomain) {
		return "", false
	}

	local := lower[:len(lower)-len(atDomain)]
	if !usernameRegex.MatchString(local) {
		return "", false
	}
	return local, true
}
