package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Mindburn-Labs/commitgate/pkg/config"
)

// runOwnershipCmd implements `commitgate ownership record|remove|list`.
// record is run when a mint is confirmed on-chain, remove when a burn is.
func runOwnershipCmd(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		_, _ = fmt.Fprintln(stderr, "Usage: commitgate ownership <record|remove|list> --player <addr> --collection <addr> [--token-id <id>]")
		return 2
	}
	sub := args[0]

	cmd := flag.NewFlagSet("ownership "+sub, flag.ContinueOnError)
	cmd.SetOutput(stderr)
	player := cmd.String("player", "", "Player wallet address (REQUIRED)")
	collection := cmd.String("collection", "", "Collection (ledger) address (REQUIRED)")
	tokenID := cmd.String("token-id", "", "Token id (record, remove)")
	if err := cmd.Parse(args[1:]); err != nil {
		return 2
	}
	if !common.IsHexAddress(*player) || !common.IsHexAddress(*collection) {
		_, _ = fmt.Fprintln(stderr, "Error: --player and --collection must be addresses")
		return 2
	}
	p, c := common.HexToAddress(*player), common.HexToAddress(*collection)

	var id *big.Int
	if sub == "record" || sub == "remove" {
		var err error
		id, err = parseBig("token-id", *tokenID)
		if err != nil || id == nil || id.Sign() < 0 {
			_, _ = fmt.Fprintln(stderr, "Error: --token-id must be a non-negative integer")
			return 2
		}
	}

	cfg, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	if cfg.DatabaseURL == "" {
		_, _ = fmt.Fprintln(stderr, "Error: COMMITGATE_DATABASE_URL is required for the ownership ledger")
		return 2
	}

	ctx := context.Background()
	db, err := openDB(ctx, cfg)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer func() { _ = db.Close() }()
	book, err := openOwnershipBook(ctx, db)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	switch sub {
	case "record":
		if err := book.Record(ctx, p, c, id); err != nil {
			_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		_, _ = fmt.Fprintf(stdout, "recorded %s in %s for %s\n", id, c.Hex(), p.Hex())
	case "remove":
		if err := book.Remove(ctx, p, c, id); err != nil {
			_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		_, _ = fmt.Fprintf(stdout, "removed %s in %s for %s\n", id, c.Hex(), p.Hex())
	case "list":
		ids, err := book.List(ctx, p, c)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		for _, id := range ids {
			_, _ = fmt.Fprintln(stdout, id.String())
		}
	default:
		_, _ = fmt.Fprintf(stderr, "Unknown ownership command: %s\n", sub)
		return 2
	}
	return 0
}
