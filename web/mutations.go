package web

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/KushNee/zhang/ast"
)

// maxUploadSize bounds document uploads.
const maxUploadSize = 32 << 20

type amountPayload struct {
	Number    string `json:"number"`
	Commodity string `json:"commodity"`
}

func (a *amountPayload) toAmount() *ast.Amount {
	return &ast.Amount{Value: a.Number, Commodity: a.Commodity}
}

type postingPayload struct {
	Account string         `json:"account"`
	Amount  *amountPayload `json:"amount,omitempty"`
}

type transactionPayload struct {
	Date      string           `json:"date"`
	Flag      string           `json:"flag,omitempty"`
	Payee     string           `json:"payee,omitempty"`
	Narration string           `json:"narration,omitempty"`
	Tags      []string         `json:"tags,omitempty"`
	Links     []string         `json:"links,omitempty"`
	Postings  []postingPayload `json:"postings"`
}

func (p *transactionPayload) toTransaction() (*ast.Transaction, error) {
	date, err := ast.ParseDate(p.Date)
	if err != nil {
		return nil, err
	}

	flag := p.Flag
	if flag == "" {
		flag = "*"
	}
	if flag != "*" && flag != "!" {
		return nil, fmt.Errorf("invalid flag %q", flag)
	}

	if len(p.Postings) < 2 {
		return nil, fmt.Errorf("a transaction needs at least two postings")
	}

	txn := &ast.Transaction{
		Date:      date,
		Flag:      flag,
		Payee:     p.Payee,
		Narration: p.Narration,
	}
	for _, tag := range p.Tags {
		txn.Tags = append(txn.Tags, ast.Tag(tag))
	}
	for _, link := range p.Links {
		txn.Links = append(txn.Links, ast.Link(link))
	}

	for _, pp := range p.Postings {
		account, err := ast.ParseAccount(pp.Account)
		if err != nil {
			return nil, err
		}
		posting := &ast.Posting{Account: account}
		if pp.Amount != nil {
			posting.Amount = pp.Amount.toAmount()
		}
		txn.Postings = append(txn.Postings, posting)
	}

	return txn, nil
}

type mutationResponse struct {
	Version uint64 `json:"version"`
	Path    string `json:"path,omitempty"`
}

func (s *Server) handleAppendTransaction(w http.ResponseWriter, r *http.Request) {
	var payload transactionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	txn, err := payload.toTransaction()
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	prev := s.controller.Version()
	if err := s.mutations.AppendTransaction(txn); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if err := s.awaitRebuild(r.Context(), prev); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, mutationResponse{Version: s.controller.Version()})
}

type balancePayload struct {
	Date    string        `json:"date"`
	Account string        `json:"account"`
	Amount  amountPayload `json:"amount"`
	Pad     string        `json:"pad"`
}

func (s *Server) handleAppendBalance(w http.ResponseWriter, r *http.Request) {
	var payload balancePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	date, err := ast.ParseDate(payload.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	account, err := ast.ParseAccount(payload.Account)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	pad, err := ast.ParseAccount(payload.Pad)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	prev := s.controller.Version()
	if err := s.mutations.AppendBalancePad(date, account, payload.Amount.toAmount(), pad); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if err := s.awaitRebuild(r.Context(), prev); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, mutationResponse{Version: s.controller.Version()})
}

func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	account, err := ast.ParseAccount(r.PathValue("account"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	date, err := ast.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("missing or invalid date parameter: %w", err))
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxUploadSize))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if len(data) == 0 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("empty document body"))
		return
	}

	prev := s.controller.Version()
	path, err := s.mutations.UploadDocument(date, account, data, r.Header.Get("Content-Type"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if err := s.awaitRebuild(r.Context(), prev); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, mutationResponse{Version: s.controller.Version(), Path: path})
}
