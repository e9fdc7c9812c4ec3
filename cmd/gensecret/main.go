package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rakannimer/talk/internal/domain"
)

func main() {
	secret, err := domain.NewSecret(time.Now().UTC())
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("KID=%s\nSECRET=%s\n", secret.KID, secret.Secret)
}
