package web

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/sheikh-saqib/piggy-bank-ledger/internal/interfaces"
	"github.com/sheikh-saqib/piggy-bank-ledger/internal/ledger"
)

// Env holds the dependencies the HTTP handlers need.
type Env struct {
	Ledger *ledger.Ledger
	Cfg    interfaces.ConfigSource
}

// Handler builds the full route table for the service.
func (e *Env) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/", e.IndexHandler)
	mux.HandleFunc("/deposit", e.DepositHandler)
	mux.HandleFunc("/withdraw", e.WithdrawHandler)
	mux.HandleFunc("/balance", e.BalanceHandler)
	mux.HandleFunc("/rows", e.RowsHandler)

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	return mux
}

// IndexHandler renders the balance page.
func (e *Env) IndexHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	balance, err := e.Ledger.CurrentBalanceDisplay(r.Context())
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	indexTemplate.Execute(w, indexData{
		Title:   e.Cfg.Title(),
		Balance: balance,
	})
}

// DepositHandler handles POST /deposit.
func (e *Env) DepositHandler(w http.ResponseWriter, r *http.Request) {
	e.transact(w, r, e.Ledger.Deposit)
}

// WithdrawHandler handles POST /withdraw.
func (e *Env) WithdrawHandler(w http.ResponseWriter, r *http.Request) {
	e.transact(w, r, e.Ledger.Withdraw)
}

func (e *Env) transact(w http.ResponseWriter, r *http.Request, op func(context.Context, decimal.Decimal) (decimal.Decimal, error)) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Amount decimal.Decimal `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	balance, err := op(r.Context(), req.Amount)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(balanceResponse{Balance: balance.StringFixed(2)})
}

// BalanceHandler returns the current balance as 2-decimal text.
func (e *Env) BalanceHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	balance, err := e.Ledger.CurrentBalanceDisplay(r.Context())
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(balanceResponse{Balance: balance})
}

// RowsHandler returns the full transaction history.
func (e *Env) RowsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	rows, err := e.Ledger.Rows(r.Context())
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rows)
}

type balanceResponse struct {
	Balance string `json:"balance"`
}

// statusFor maps engine errors onto HTTP statuses: rejected amounts are
// unprocessable, business-rule refusals conflict, store outages are 503.
func statusFor(err error) int {
	var (
		amountErr *ledger.InvalidAmountError
		limitErr  *ledger.LimitExceededError
		fundsErr  *ledger.InsufficientFundsError
		storeErr  *ledger.StoreUnavailableError
	)
	switch {
	case errors.As(err, &amountErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &limitErr), errors.As(err, &fundsErr):
		return http.StatusConflict
	case errors.Is(err, ledger.ErrMissingLedger):
		return http.StatusConflict
	case errors.As(err, &storeErr):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

type indexData struct {
	Title   string
	Balance string
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
<title>{{.Title}}</title>
<style>
  body { font-family: Arial, sans-serif; text-align: center; padding-top: 50px; background-color: #f0f0f0; }
  h1 { color: #4a4a4a; }
  .balance { font-size: 48px; color: #2c8b2c; font-weight: bold; margin-top: 20px; margin-bottom: 30px; }
  .button {
    border: none; color: white; padding: 15px 32px; text-align: center;
    text-decoration: none; display: inline-block; font-size: 16px;
    margin: 4px 10px; cursor: pointer; border-radius: 8px; transition: background-color 0.3s;
  }
  .deposit { background-color: #4CAF50; }
  .deposit:hover { background-color: #45a049; }
  .withdraw { background-color: #f44336; }
  .withdraw:hover { background-color: #da190b; }
  .button:disabled { background-color: #cccccc; cursor: not-allowed; }
</style>
</head>
<body>
<h1>{{.Title}}&#39;s Current Balance</h1>
<div class="balance">{{.Balance}}</div>
<button class="button deposit" id="depositBtn" onclick="transact('/deposit', 'deposit')">Deposit</button>
<button class="button withdraw" id="withdrawBtn" onclick="transact('/withdraw', 'withdraw')">Withdraw</button>

<script>
  function transact(path, verb) {
    const amountString = prompt("Please enter the amount to " + verb + ":", "10.00");
    if (amountString === null || amountString.trim() === "") return;

    const amount = parseFloat(amountString);
    if (isNaN(amount) || amount <= 0) {
      alert("Invalid amount. Please enter a positive number.");
      return;
    }

    setButtonsDisabled(true);
    fetch(path, {
      method: "POST",
      headers: { "Content-Type": "application/json" },
      body: JSON.stringify({ amount: amount }),
    })
      .then(async (resp) => {
        const text = await resp.text();
        if (!resp.ok) throw new Error(text.trim());
        document.querySelector(".balance").textContent = JSON.parse(text).balance;
        alert("Transaction successful!");
      })
      .catch((err) => alert("Transaction failed: " + err.message))
      .finally(() => setButtonsDisabled(false));
  }

  function setButtonsDisabled(disabled) {
    document.getElementById("depositBtn").disabled = disabled;
    document.getElementById("withdrawBtn").disabled = disabled;
  }
</script>
</body>
</html>
`))
