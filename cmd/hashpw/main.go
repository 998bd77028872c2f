// cmd/hashpw prints an Argon2id hash suitable for ADMIN_PASSWORD_HASH.
//
//	go run ./cmd/hashpw [-v] <password>
package main

import (
	"fmt"
	"os"

	"github.com/jason-s-yu/spotdiff/internal/auth"
	log "github.com/sirupsen/logrus"
)

func main() {
	var password string
	verbose := false
	for _, arg := range os.Args[1:] {
		if arg == "-v" {
			verbose = true
			continue
		}
		password = arg
	}
	if password == "" {
		fmt.Fprintln(os.Stderr, "usage: hashpw [-v] <password>")
		os.Exit(2)
	}

	if verbose {
		log.Infof("hashing with %+v", auth.DefaultParams)
	}
	hash, err := auth.HashPassword(password, auth.DefaultParams)
	if err != nil {
		log.Fatalf("hash: %v", err)
	}
	fmt.Println(hash)
}
