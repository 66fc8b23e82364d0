// kchain-keygen generates an ephemeral wallet key: a fresh BIP-39
// mnemonic, its BIP-32 derived signing key, and the resulting address.
// With --encrypt it also writes a password-protected export file instead
// of printing the raw private key.
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"

	"github.com/klingnet-tech/kchain/internal/wallet"
	"golang.org/x/term"
)

func main() {
	fs := flag.NewFlagSet("kchain-keygen", flag.ContinueOnError)
	passphrase := fs.String("passphrase", "", "optional BIP-39 passphrase ('25th word')")
	account := fs.Uint("account", 0, "BIP-44 account index")
	encryptOut := fs.String("encrypt", "", "path to write a password-encrypted export instead of printing the private key")

	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}

	mnemonic, err := wallet.GenerateMnemonic()
	if err != nil {
		fmt.Fprintf(os.Stderr, "kchain-keygen: generate mnemonic: %v\n", err)
		os.Exit(1)
	}

	seed, err := wallet.SeedFromMnemonic(mnemonic, *passphrase)
	if err != nil {
		fmt.Fprintf(os.Stderr, "kchain-keygen: derive seed: %v\n", err)
		os.Exit(1)
	}

	master, err := wallet.NewMasterKey(seed)
	if err != nil {
		fmt.Fprintf(os.Stderr, "kchain-keygen: derive master key: %v\n", err)
		os.Exit(1)
	}

	key, err := master.DeriveAddress(uint32(*account), wallet.ChangeExternal, 0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "kchain-keygen: derive address key: %v\n", err)
		os.Exit(1)
	}

	address, err := key.Address()
	if err != nil {
		fmt.Fprintf(os.Stderr, "kchain-keygen: derive address: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("mnemonic:    %s\n", mnemonic)
	fmt.Printf("address:     %s\n", address)

	if *encryptOut == "" {
		fmt.Printf("private_key: %s\n", hex.EncodeToString(key.PrivateKeyBytes()))
		return
	}

	fmt.Fprint(os.Stderr, "Export passphrase: ")
	pass, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "kchain-keygen: read passphrase: %v\n", err)
		os.Exit(1)
	}

	encrypted, err := wallet.Encrypt(key.PrivateKeyBytes(), pass, wallet.DefaultParams())
	if err != nil {
		fmt.Fprintf(os.Stderr, "kchain-keygen: encrypt export: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile(*encryptOut, encrypted, 0600); err != nil {
		fmt.Fprintf(os.Stderr, "kchain-keygen: write export: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("export:      %s\n", *encryptOut)
}
