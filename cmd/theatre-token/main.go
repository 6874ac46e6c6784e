package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-chi/jwtauth"
	"github.com/joho/godotenv"

	"github.com/tendant/simple-theatre/pkg/theatre"
	"github.com/tendant/simple-theatre/pkg/theatre/api"
)

func main() {
	_ = godotenv.Load()

	user := flag.String("user", "", "user id (token subject)")
	caps := flag.String("caps", string(theatre.CapEditPosts), "comma separated capabilities: edit_posts, manage_options")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime, 0 for no expiry")
	flag.Parse()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		fmt.Fprintln(os.Stderr, "JWT_SECRET must be set to the server's secret")
		os.Exit(1)
	}

	p := theatre.Principal{UserID: *user}
	for _, c := range strings.Split(*caps, ",") {
		if c = strings.TrimSpace(c); c != "" {
			p.Capabilities = append(p.Capabilities, theatre.Capability(c))
		}
	}

	ja := jwtauth.New("HS256", []byte(secret), nil)
	token, err := api.IssueToken(ja, p, *ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(token)
}
