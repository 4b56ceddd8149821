package main

import (
	"flag"
	"fmt"
	"os"

	"shieldpool/internal/fieldhash"
	"shieldpool/internal/utils"
)

// derive-commitment computes the note commitment and nullifier for given
// note parameters. Useful when preparing shield or transfer calls by hand.
func main() {
	secret := flag.String("secret", "", "note secret (0x + 64 hex)")
	assetID := flag.String("asset", "", "asset id (0x + 64 hex)")
	ownerKey := flag.String("owner", "", "owner key field (0x + 64 hex)")
	flag.Parse()

	if *secret == "" || *assetID == "" || *ownerKey == "" {
		fmt.Println("Usage: derive-commitment -secret 0x.. -asset 0x.. -owner 0x..")
		os.Exit(1)
	}

	s, err := utils.ParseHash(*secret)
	if err != nil {
		fmt.Printf("Invalid secret: %v\n", err)
		os.Exit(1)
	}
	a, err := utils.ParseHash(*assetID)
	if err != nil {
		fmt.Printf("Invalid asset id: %v\n", err)
		os.Exit(1)
	}
	o, err := utils.ParseHash(*ownerKey)
	if err != nil {
		fmt.Printf("Invalid owner key: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("commitment: %s\n", fieldhash.Commitment(s, a, o).Hex())
	fmt.Printf("nullifier:  %s\n", fieldhash.Nullifier(s, a, o).Hex())
}
