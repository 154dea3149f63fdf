package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"
)

// Prints a service_role bearer token for calling admin routes locally.
func main() {
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	_ = godotenv.Load()
	secret := os.Getenv("SUPABASE_JWT_SECRET")
	if secret == "" {
		fmt.Fprintln(os.Stderr, "SUPABASE_JWT_SECRET is not set")
		os.Exit(1)
	}

	now := time.Now()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"role": "service_role",
		"iss":  "nardeboun-backend",
		"iat":  now.Unix(),
		"exp":  now.Add(*ttl).Unix(),
	}).SignedString([]byte(secret))
	if err != nil {
		fmt.Fprintf(os.Stderr, "sign token: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Authorization: Bearer %s\n", token)
}
