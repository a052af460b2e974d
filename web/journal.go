package web

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/KushNee/zhang/ast"
	"github.com/KushNee/zhang/ledger"
)

type postingView struct {
	Account  string `json:"account"`
	Amount   string `json:"amount,omitempty"`
	Cost     string `json:"cost,omitempty"`
	Price    string `json:"price,omitempty"`
	Inferred bool   `json:"inferred,omitempty"`
}

type transactionView struct {
	Date      string        `json:"date"`
	Flag      string        `json:"flag"`
	Payee     string        `json:"payee,omitempty"`
	Narration string        `json:"narration,omitempty"`
	Tags      []string      `json:"tags,omitempty"`
	Links     []string      `json:"links,omitempty"`
	Postings  []postingView `json:"postings"`
}

func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	snapshot := s.controller.Snapshot()

	journal := make([]transactionView, 0, len(snapshot.Journal))
	for _, txn := range snapshot.Journal {
		journal = append(journal, transactionToView(txn))
	}

	writeJSON(w, http.StatusOK, journal)
}

func transactionToView(txn *ast.Transaction) transactionView {
	view := transactionView{
		Date:      txn.Date.String(),
		Flag:      txn.Flag,
		Payee:     txn.Payee,
		Narration: txn.Narration,
	}
	for _, tag := range txn.Tags {
		view.Tags = append(view.Tags, string(tag))
	}
	for _, link := range txn.Links {
		view.Links = append(view.Links, string(link))
	}
	for _, posting := range txn.Postings {
		pv := postingView{
			Account:  string(posting.Account),
			Inferred: posting.Inferred,
		}
		if posting.Amount != nil {
			pv.Amount = posting.Amount.String()
		}
		if posting.Cost != nil {
			pv.Cost = posting.Cost.Amount.String()
		}
		if posting.Price != nil {
			pv.Price = posting.Price.String()
		}
		view.Postings = append(view.Postings, pv)
	}
	return view
}

type diagnosticView struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

func (s *Server) handleErrors(w http.ResponseWriter, r *http.Request) {
	snapshot := s.controller.Snapshot()

	diagnostics := make([]diagnosticView, 0, len(snapshot.Diagnostics))
	for _, diag := range snapshot.Diagnostics {
		pos := diag.Position()
		diagnostics = append(diagnostics, diagnosticView{
			Kind:    diag.Kind(),
			Message: diag.Error(),
			File:    pos.Filename,
			Line:    pos.Line,
			Column:  pos.Column,
		})
	}

	writeJSON(w, http.StatusOK, diagnostics)
}

type statView struct {
	Period            string            `json:"period"`
	Income            map[string]string `json:"income"`
	Expense           map[string]string `json:"expense"`
	NetWorth          map[string]string `json:"net_worth"`
	NetWorthOperating string            `json:"net_worth_operating"`
}

type statisticsView struct {
	OperatingCurrency string     `json:"operating_currency"`
	Daily             []statView `json:"daily"`
	Monthly           []statView `json:"monthly"`
}

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	snapshot := s.controller.Snapshot()

	view := statisticsView{
		OperatingCurrency: snapshot.Options.OperatingCurrency,
		Daily:             statPointsToView(snapshot.Stats.Daily),
		Monthly:           statPointsToView(snapshot.Stats.Monthly),
	}

	writeJSON(w, http.StatusOK, view)
}

func statPointsToView(points []*ledger.StatPoint) []statView {
	views := make([]statView, 0, len(points))
	for _, point := range points {
		view := statView{
			Period:            point.Period,
			Income:            renderBalances(point.Income),
			Expense:           renderBalances(point.Expense),
			NetWorth:          renderBalances(point.NetWorth),
			NetWorthOperating: point.NetWorthOperating.String(),
		}
		views = append(views, view)
	}
	return views
}

func renderBalances(balances map[string]decimal.Decimal) map[string]string {
	rendered := make(map[string]string, len(balances))
	for commodity, amount := range balances {
		rendered[commodity] = amount.String()
	}
	return rendered
}
