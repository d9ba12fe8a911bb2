// Command hashpass prints an OPERATOR_PASSWORD_HASH value for the password
// read from stdin.
package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/noah-isme/toko-kasir/internal/auth"
)

func main() {
	reader := bufio.NewReader(os.Stdin)
	password, err := reader.ReadString('\n')
	if err != nil && password == "" {
		log.Fatalf("read password: %v", err)
	}
	hash, err := auth.HashPassword(strings.TrimRight(password, "\r\n"))
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}
	fmt.Println(hash)
}
