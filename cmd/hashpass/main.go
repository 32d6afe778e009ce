package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/gestaozabele/zeladoria/internal/auth"
	"github.com/gestaozabele/zeladoria/internal/config"
)

func main() {
	verify := flag.String("verify", "", "hash argon2id a conferir contra a senha")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: hashpass [-verify <hash>] <password>")
		os.Exit(1)
	}
	password := flag.Arg(0)

	_ = godotenv.Load()
	costs, err := config.LoadPasswordHash()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	hasher, err := auth.NewPasswordHasher(auth.PasswordParams(costs))
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	if *verify != "" {
		ok, err := hasher.Verify(password, *verify)
		if err != nil {
			fmt.Fprintf(os.Stderr, "verify error: %v\n", err)
			os.Exit(1)
		}
		if !ok {
			fmt.Println("não confere")
			os.Exit(2)
		}
		fmt.Println("confere")
		if stale, err := hasher.NeedsRehash(*verify); err == nil && stale {
			fmt.Println("hash gerado com custos antigos; gere novamente")
		}
		return
	}

	hash, err := hasher.Hash(password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "senha recusada: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}
