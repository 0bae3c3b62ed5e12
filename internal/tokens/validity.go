package tokens

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Usable reports whether tok is a structurally valid JWT whose exp claim lies
// strictly in the future. The signature is deliberately not verified: the
// client only needs to know whether presenting this token is worth a round
// trip, the backend remains the authority on acceptance. Any parse failure
// means "not usable", never an error.
func Usable(tok string, now time.Time) bool {
	segments := strings.Split(tok, ".")
	if len(segments) != 3 {
		return false
	}
	for _, s := range segments {
		if s == "" {
			return false
		}
	}

	claims := jwt.MapClaims{}
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	if _, _, err := parser.ParseUnverified(tok, claims); err != nil {
		return false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Time.After(now)
}
