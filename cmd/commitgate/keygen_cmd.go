package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"

	"github.com/Mindburn-Labs/commitgate/pkg/crypto"
)

// runKeygenCmd implements `commitgate keygen`: a fresh authority key for
// COMMITGATE_AUTHORITY_KEY plus the address the registry must trust.
func runKeygenCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("keygen", flag.ContinueOnError)
	cmd.SetOutput(stderr)
	jsonOutput := cmd.Bool("json", false, "Output as JSON")
	if err := cmd.Parse(args); err != nil {
		return 2
	}

	keyHex, addr, err := crypto.GenerateKeyHex()
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if *jsonOutput {
		out := struct {
			Address    string `json:"address"`
			PrivateKey string `json:"private_key"`
		}{addr.Hex(), keyHex}
		if err := json.NewEncoder(stdout).Encode(out); err != nil {
			_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	_, _ = fmt.Fprintf(stdout, "address:     %s\n", addr.Hex())
	_, _ = fmt.Fprintf(stdout, "private_key: %s\n", keyHex)
	_, _ = fmt.Fprintln(stderr, "Store the private key as COMMITGATE_AUTHORITY_KEY; it is not shown again.")
	return 0
}
