package web

import (
	"net/http"

	"github.com/KushNee/zhang/ledger"
)

type accountView struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Open        string   `json:"open"`
	Close       string   `json:"close,omitempty"`
	Commodities []string `json:"commodities,omitempty"`
}

func (s *Server) handleAccounts(w http.ResponseWriter, r *http.Request) {
	snapshot := s.controller.Snapshot()

	accounts := make([]accountView, 0, len(snapshot.Accounts))
	for _, account := range snapshot.Accounts {
		view := accountView{
			Name:        string(account.Name),
			Type:        account.Type.String(),
			Open:        account.OpenDate.String(),
			Commodities: account.Commodities,
		}
		if account.CloseDate != nil {
			view.Close = account.CloseDate.String()
		}
		accounts = append(accounts, view)
	}

	writeJSON(w, http.StatusOK, accounts)
}

type balanceView struct {
	Account  string            `json:"account"`
	Balances map[string]string `json:"balances"`
}

func (s *Server) handleBalances(w http.ResponseWriter, r *http.Request) {
	snapshot := s.controller.Snapshot()

	balances := make([]balanceView, 0, len(snapshot.Accounts))
	for _, account := range snapshot.Accounts {
		view := balanceView{
			Account:  string(account.Name),
			Balances: make(map[string]string),
		}
		for _, commodity := range account.Inventory.Commodities() {
			view.Balances[commodity] = roundFor(snapshot, commodity, account).String()
		}
		balances = append(balances, view)
	}

	writeJSON(w, http.StatusOK, balances)
}

// roundFor renders a balance at the commodity's display precision with its
// rounding mode.
func roundFor(snapshot *ledger.Snapshot, commodity string, account *ledger.Account) interface{ String() string } {
	amount := account.Inventory.Get(commodity)
	for _, info := range snapshot.Commodities {
		if info.Name == commodity {
			return info.Rounding.Apply(amount, info.Precision)
		}
	}
	return amount
}
