// Package server exposes the commit bridge over HTTP.
//
//	POST /v1/commits/{class}/{action}   authenticated, rate limited per player
//	GET  /health                        public
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"

	"github.com/Mindburn-Labs/commitgate/pkg/api"
	"github.com/Mindburn-Labs/commitgate/pkg/auth"
	"github.com/Mindburn-Labs/commitgate/pkg/bridge"
	"github.com/Mindburn-Labs/commitgate/pkg/commiterr"
	"github.com/Mindburn-Labs/commitgate/pkg/contracts"
	"github.com/Mindburn-Labs/commitgate/pkg/crypto"
)

const maxBodyBytes = 64 << 10

// Committer is satisfied by *bridge.CommitBridge.
type Committer interface {
	Commit(ctx context.Context, class contracts.AssetClass, req bridge.Request) contracts.CommitResult
	Authority() crypto.Authority
}

// Options configure the HTTP surface.
type Options struct {
	JWTSecret      string
	RateLimitRPS   float64
	RateLimitBurst int
	Version        string
}

// Server is the commitgate HTTP API.
type Server struct {
	committer Committer
	version   string
	handler   http.Handler
	logger    *slog.Logger
}

func New(c Committer, opts Options) *Server {
	s := &Server{
		committer: c,
		version:   opts.Version,
		logger:    slog.Default().With("component", "server"),
	}

	limiter := api.NewRateLimiter(opts.RateLimitRPS, opts.RateLimitBurst, auth.PlayerKey)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("POST /v1/commits/{class}/{action}", limiter.Middleware(http.HandlerFunc(s.handleCommit)))
	mux.HandleFunc("/v1/commits/{class}/{action}", func(w http.ResponseWriter, _ *http.Request) {
		api.WriteMethodNotAllowed(w)
	})

	s.handler = auth.RequestIDMiddleware(auth.NewMiddleware(auth.NewJWTValidator(opts.JWTSecret))(mux))
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.handler }

// ListenAndServe serves on addr until ctx is cancelled, then drains for up to 10s.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.InfoContext(ctx, "listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// CommitRequest is the inbound body. Amount and TokenID accept JSON numbers,
// decimal strings or 0x-prefixed hex strings.
type CommitRequest struct {
	AssetName string                `json:"asset_name"`
	Amount    *math.HexOrDecimal256 `json:"amount,omitempty"`
	TokenID   *math.HexOrDecimal256 `json:"token_id,omitempty"`
	Data      hexutil.Bytes         `json:"data,omitempty"`
}

// CommitResponse is returned for a signed commit.
type CommitResponse struct {
	Success       bool           `json:"success"`
	CommitID      string         `json:"commit_id"`
	ElementHash   common.Hash    `json:"element_hash"`
	EncodedCommit hexutil.Bytes  `json:"encoded_commit"`
	Signature     hexutil.Bytes  `json:"signature"`
	Signer        common.Address `json:"signer"`
	Target        common.Address `json:"target"`
	Account       common.Address `json:"account"`
	Nonce         string         `json:"nonce"`
	CallData      hexutil.Bytes  `json:"call_data"`
}

// HealthResponse reports process and authority state. It never includes key material.
type HealthResponse struct {
	Status    string `json:"status"`
	Authority string `json:"authority"`
	Signer    string `json:"signer,omitempty"`
	Reason    string `json:"reason,omitempty"`
	Version   string `json:"version,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok", Version: s.version}
	status := http.StatusOK

	switch a := s.committer.Authority().(type) {
	case *crypto.Ready:
		resp.Authority = a.State()
		resp.Signer = a.Address().Hex()
	case *crypto.Uninitialized:
		resp.Status = "degraded"
		resp.Authority = a.State()
		resp.Reason = a.Reason
		status = http.StatusServiceUnavailable
	default:
		resp.Status = "degraded"
		resp.Authority = "unknown"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleCommit(w http.ResponseWriter, r *http.Request) {
	player, err := auth.GetPlayer(r.Context())
	if err != nil {
		api.WriteUnauthorized(w, "")
		return
	}

	class, err := contracts.ParseAssetClass(r.PathValue("class"))
	if err != nil {
		api.WriteErrorR(w, r, http.StatusNotFound, "Not Found", err.Error())
		return
	}
	action, err := contracts.ParseAction(r.PathValue("action"))
	if err != nil {
		api.WriteErrorR(w, r, http.StatusNotFound, "Not Found", err.Error())
		return
	}

	var body CommitRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		if errors.Is(err, io.EOF) {
			api.WriteBadRequest(w, r, "request body is empty")
			return
		}
		api.WriteBadRequest(w, r, "malformed request body: "+err.Error())
		return
	}

	payload := bridge.Payload{
		Amount:  (*big.Int)(body.Amount),
		TokenID: (*big.Int)(body.TokenID),
	}
	if body.Data != nil {
		payload.Data = body.Data
	}
	req, err := bridge.NewRequest(class, action, bridge.Subject{
		AssetName:     body.AssetName,
		PlayerID:      player.ID,
		PlayerAddress: player.Wallet,
	}, payload)
	if err != nil {
		api.WriteCommitError(w, r, err)
		return
	}

	res := s.committer.Commit(r.Context(), class, req)
	logger := auth.Logger(r.Context(), s.logger).With("class", class, "action", action)
	if !res.Success || res.Commit == nil {
		logger.InfoContext(r.Context(), "commit refused", "kind", commiterr.KindOf(res.Err))
		if res.Err == nil {
			api.WriteInternal(w, r, errors.New("commit failed without a cause"))
			return
		}
		api.WriteCommitError(w, r, res.Err)
		return
	}

	sc := res.Commit
	logger.InfoContext(r.Context(), "commit issued", "commit_id", sc.CommitID, "nonce", sc.Record.Nonce.String())
	writeJSON(w, http.StatusOK, CommitResponse{
		Success:       true,
		CommitID:      sc.CommitID,
		ElementHash:   sc.ElementHash,
		EncodedCommit: sc.EncodedCommit,
		Signature:     sc.Signature,
		Signer:        sc.Record.Signer,
		Target:        sc.Record.Target,
		Account:       sc.Record.Account,
		Nonce:         sc.Record.Nonce.String(),
		CallData:      sc.Record.CallData,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
