// Comando hashpass deriva el hash Argon2id de una contraseña, útil para
// sembrar identidades a mano durante pruebas.
package main

import (
	"fmt"
	"os"

	"github.com/sivigila/solicitudes/internal/auth"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "uso: hashpass <contraseña>")
		os.Exit(2)
	}

	hash, err := auth.Hash(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "error de hash: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}
