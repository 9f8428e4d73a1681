// Command get_token mints the Google Calendar refresh token the google
// calendar backend needs. Run it once, follow the consent link, paste the
// code back, and export the printed token.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
)

func main() {
	redirect := flag.String("redirect", "http://localhost:8080/callback", "OAuth2 redirect URI registered for the client")
	scope := flag.String("scope", gcal.CalendarEventsScope, "OAuth2 scope to request")
	flag.Parse()

	cfg, err := configFromEnv(*redirect, *scope)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("Open this link in your browser and approve access:")
	fmt.Println()
	fmt.Println(cfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline))
	fmt.Println()
	fmt.Print("Paste the 'code' parameter from the redirect URL: ")

	code, err := readLine()
	if err != nil {
		log.Fatalf("failed to read authorization code: %v", err)
	}

	token, err := cfg.Exchange(context.Background(), code)
	if err != nil {
		log.Fatalf("failed to exchange authorization code: %v", err)
	}
	if token.RefreshToken == "" {
		log.Fatal("no refresh token returned; revoke the app's access and run again")
	}

	fmt.Println()
	fmt.Println("Add this to your environment:")
	fmt.Printf("export GOOGLE_REFRESH_TOKEN=%q\n", token.RefreshToken)
}

func configFromEnv(redirect, scope string) (*oauth2.Config, error) {
	clientID := os.Getenv("GOOGLE_CLIENT_ID")
	clientSecret := os.Getenv("GOOGLE_CLIENT_SECRET")
	if clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET must be set")
	}

	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Scopes:       []string{scope},
		Endpoint:     google.Endpoint,
		RedirectURL:  redirect,
	}, nil
}

func readLine() (string, error) {
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
