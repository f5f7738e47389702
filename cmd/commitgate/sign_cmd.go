package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/Mindburn-Labs/commitgate/pkg/bridge"
	"github.com/Mindburn-Labs/commitgate/pkg/commiterr"
	"github.com/Mindburn-Labs/commitgate/pkg/config"
	"github.com/Mindburn-Labs/commitgate/pkg/contracts"
	"github.com/Mindburn-Labs/commitgate/pkg/crypto"
)

// runSignCmd implements `commitgate sign`: one request through the full
// pipeline, printed instead of served.
//
// Exit codes:
//
//	0 = commit signed
//	1 = commit rejected
//	2 = usage or configuration error
func runSignCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("sign", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		className, actionName    string
		asset, player, wallet    string
		amount, tokenID, dataHex string
		jsonOutput, verify       bool
	)
	cmd.StringVar(&className, "class", "", "Asset class: resource, coin, item, character (REQUIRED)")
	cmd.StringVar(&actionName, "action", "", "Action: mint, burn, modify (REQUIRED)")
	cmd.StringVar(&asset, "asset", "", "Asset name as listed in the catalog (REQUIRED)")
	cmd.StringVar(&player, "player", "", "Player id (REQUIRED)")
	cmd.StringVar(&wallet, "wallet", "", "Player wallet address (REQUIRED)")
	cmd.StringVar(&amount, "amount", "", "Amount for fungible mint/burn")
	cmd.StringVar(&tokenID, "token-id", "", "Instance id for non-fungible burn/modify")
	cmd.StringVar(&dataHex, "data", "", "0x-prefixed payload for modify")
	cmd.BoolVar(&jsonOutput, "json", false, "Output the signed commit as JSON")
	cmd.BoolVar(&verify, "verify", false, "Recover the signer from the signature and check it is the authority")

	if err := cmd.Parse(args); err != nil {
		return 2
	}

	class, err := contracts.ParseAssetClass(className)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: --class: %v\n", err)
		return 2
	}
	action, err := contracts.ParseAction(actionName)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: --action: %v\n", err)
		return 2
	}
	if !common.IsHexAddress(wallet) {
		_, _ = fmt.Fprintln(stderr, "Error: --wallet must be an address")
		return 2
	}

	var payload bridge.Payload
	if payload.Amount, err = parseBig("amount", amount); err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	if payload.TokenID, err = parseBig("token-id", tokenID); err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	if dataHex != "" {
		if payload.Data, err = hexutil.Decode(dataHex); err != nil {
			_, _ = fmt.Fprintf(stderr, "Error: --data: %v\n", err)
			return 2
		}
	}

	req, err := bridge.NewRequest(class, action, bridge.Subject{
		AssetName:     asset,
		PlayerID:      player,
		PlayerAddress: common.HexToAddress(wallet),
	}, payload)
	if err == nil {
		err = req.Validate()
	}
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	logger := setupLogger(cfg, stderr)

	ctx := context.Background()
	rt, err := buildRuntime(ctx, cfg, logger)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	defer rt.Close()

	res := rt.bridge.Commit(ctx, class, req)
	if !res.Success {
		_, _ = fmt.Fprintf(stderr, "Rejected: %v\n", res.Err)
		if commiterr.KindOf(res.Err) == commiterr.KindConfiguration {
			return 2
		}
		return 1
	}
	sc := res.Commit

	if verify {
		ready := rt.authority.(*crypto.Ready)
		got, err := crypto.RecoverSigner(sc.Record, crypto.Domain{ChainID: ready.ChainID(), VerifyingContract: ready.Registry()}, sc.Signature)
		if err != nil || got != ready.Address() {
			_, _ = fmt.Fprintf(stderr, "Verification failed: recovered %s, want %s (%v)\n", got.Hex(), ready.Address().Hex(), err)
			return 1
		}
	}

	if jsonOutput {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(sc); err != nil {
			_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
			return 2
		}
		return 0
	}

	_, _ = fmt.Fprintf(stdout, "commit_id:      %s\n", sc.CommitID)
	_, _ = fmt.Fprintf(stdout, "element_hash:   %s\n", sc.ElementHash.Hex())
	_, _ = fmt.Fprintf(stdout, "target:         %s\n", sc.Record.Target.Hex())
	_, _ = fmt.Fprintf(stdout, "account:        %s\n", sc.Record.Account.Hex())
	_, _ = fmt.Fprintf(stdout, "signer:         %s\n", sc.Record.Signer.Hex())
	_, _ = fmt.Fprintf(stdout, "nonce:          %s\n", sc.Record.Nonce.String())
	_, _ = fmt.Fprintf(stdout, "call_data:      %s\n", sc.Record.CallData.String())
	_, _ = fmt.Fprintf(stdout, "encoded_commit: %s\n", sc.EncodedCommit.String())
	_, _ = fmt.Fprintf(stdout, "signature:      %s\n", sc.Signature.String())
	if verify {
		_, _ = fmt.Fprintln(stdout, "verified:       true")
	}
	return 0
}

func parseBig(flagName, s string) (*big.Int, error) {
	if s == "" {
		return nil, nil
	}
	v, ok := new(big.Int).SetString(s, 0)
	if !ok {
		return nil, fmt.Errorf("--%s: %q is not an integer", flagName, s)
	}
	return v, nil
}
