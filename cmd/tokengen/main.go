// main generates access tokens signed with the stub backend's key, for
// poking authenticated endpoints with curl. These tokens will NOT work
// against a real backend.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const defaultSecret = "stub-secret"

type tokenOutput struct {
	Token     string `json:"token"`
	UserID    string `json:"user_id"`
	ExpiresIn string `json:"expires_in"`
	Usage     string `json:"usage"`
}

func main() {
	userID := flag.String("user-id", "user-1", "subject claim")
	ttl := flag.Duration("ttl", time.Hour, "token time-to-live, negative for an already-expired token")
	secret := flag.String("secret", defaultSecret, "HS256 signing secret, must match the stub backend")
	jsonOutput := flag.Bool("json", false, "output as JSON")
	flag.Parse()

	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": *userID,
		"jti": uuid.NewString(),
		"iat": now.Unix(),
		"exp": now.Add(*ttl).Unix(),
	})
	signed, err := tok.SignedString([]byte(*secret))
	if err != nil {
		fmt.Fprintln(os.Stderr, "sign token:", err)
		os.Exit(1)
	}

	if *jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(tokenOutput{
			Token:     signed,
			UserID:    *userID,
			ExpiresIn: ttl.String(),
			Usage:     "Authorization: Bearer <token>",
		})
		return
	}

	fmt.Println(signed)
	fmt.Fprintf(os.Stderr, "\nuser=%s ttl=%s\ncurl -H \"Authorization: Bearer <token>\" http://localhost:8080/user/v1\n", *userID, *ttl)
}
