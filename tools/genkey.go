package main

import (
	"fmt"
	"log"
	"os"

	"github.com/dropDatabas3/strongjohn/internal/security/secretbox"
)

// Genera una clave maestra para SECRETBOX_KEY_B64, o cifra un valor
// con una clave existente para pegarlo en la configuracion.
func main() {
	if len(os.Args) < 2 {
		fmt.Println(secretbox.EphemeralKeyB64())
		return
	}
	if len(os.Args) < 3 {
		log.Fatal("Usage: go run genkey.go [<key_b64> <plaintext>]")
	}

	codec, err := secretbox.New(os.Args[1])
	if err != nil {
		log.Fatalf("Invalid key: %v", err)
	}
	encrypted, err := codec.Encrypt([]byte(os.Args[2]))
	if err != nil {
		log.Fatalf("Encryption failed: %v", err)
	}
	fmt.Printf("Encrypted: %s\n", encrypted)
}
