package main

import (
	"flag"
	"fmt"
	"os"

	"shieldpool/internal/stealth"
	"shieldpool/internal/utils"
)

// stealth-keygen generates view key pairs and derives one-time destinations
// offline, without touching the backend.
func main() {
	derive := flag.String("derive", "", "recipient view public key (0x hex) to derive a one-time address for")
	flag.Parse()

	if *derive == "" {
		key, err := stealth.GenerateViewKeyPair()
		if err != nil {
			fmt.Printf("Error generating key pair: %v\n", err)
			os.Exit(1)
		}

		fmt.Println("View key pair:")
		fmt.Printf("  view_priv: 0x%064x\n", key.D)
		fmt.Printf("  view_pub:  %s\n", utils.EncodePublicKey(&key.PublicKey))
		return
	}

	viewPub, err := utils.ParsePublicKey(*derive)
	if err != nil {
		fmt.Printf("Invalid view public key: %v\n", err)
		os.Exit(1)
	}

	ephemeral, err := stealth.GenerateEphemeralKey()
	if err != nil {
		fmt.Printf("Error generating ephemeral key: %v\n", err)
		os.Exit(1)
	}

	stealthPub, ephemeralPub, err := stealth.GenerateStealthAddress(viewPub, ephemeral)
	if err != nil {
		fmt.Printf("Derivation failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("One-time destination:")
	fmt.Printf("  stealth_pub:   %s\n", utils.EncodePublicKey(stealthPub))
	fmt.Printf("  ephemeral_pub: %s\n", utils.EncodePublicKey(ephemeralPub))
	fmt.Printf("  owner_key:     %s\n", stealth.OwnerKeyField(stealthPub).Hex())
}
