// Command lexroom-token mints a bearer token for local testing against a
// running lexroom instance sharing the same JWT settings.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/dkoutsos/lexroom/internal/auth"
	"github.com/dkoutsos/lexroom/internal/config"
)

func main() {
	subject := flag.String("subject", "", "token subject (user id), required")
	clientID := flag.String("client-id", "lexroom-cli", "client identifier embedded in the token")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	if *subject == "" {
		fmt.Fprintln(os.Stderr, "usage: lexroom-token --subject <user> [--client-id <id>] [--ttl <duration>]")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	authority, err := auth.NewAuthority(auth.Config{
		Secret:    cfg.JWTSecret,
		Algorithm: cfg.JWTAlgorithm,
		Issuer:    cfg.JWTIssuer,
		Audience:  cfg.JWTAudience,
	})
	if err != nil {
		log.Fatalf("token authority init failed: %v", err)
	}

	token, err := authority.Issue(*subject, *clientID, *ttl)
	if err != nil {
		log.Fatalf("issue token failed: %v", err)
	}

	fmt.Println(token)
	fmt.Fprintln(os.Stderr)
	fmt.Fprintf(os.Stderr, "expires: %s\n", time.Now().UTC().Add(*ttl).Format(time.RFC3339))
	fmt.Fprintf(os.Stderr, "example: curl -H 'Authorization: Bearer %s' -d '{\"message\":\"hello\"}' http://localhost:8080/v1/chat\n", token)
}
