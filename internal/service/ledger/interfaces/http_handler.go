package interfaces

import (
	"net/http"

	"txflow/internal/pkg/httpserver"
	"txflow/internal/service/ledger/application"
)

// LedgerHandler 封装了账本服务的 HTTP 处理器
type LedgerHandler struct {
	service *application.LedgerApplicationService
}

func NewLedgerHandler(service *application.LedgerApplicationService) *LedgerHandler {
	return &LedgerHandler{service: service}
}

// RegisterRoutes 在 ServeMux 上注册所有路由
func (h *LedgerHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /accounts", h.createAccount)
	mux.HandleFunc("GET /accounts", h.listAccounts)
	mux.HandleFunc("GET /accounts/{number}", h.getAccount)
	mux.HandleFunc("POST /transfers", h.transfer)
	mux.HandleFunc("GET /transfers", h.listTransfers)
}

func (h *LedgerHandler) createAccount(w http.ResponseWriter, r *http.Request) {
	ctx := httpserver.ExtractContext(r)
	var req application.CreateAccountRequest
	if err := httpserver.DecodeJSON(r, &req); err != nil {
		httpserver.WriteError(ctx, w, err)
		return
	}
	account, err := h.service.CreateAccount(ctx, &req)
	if err != nil {
		httpserver.WriteError(ctx, w, err)
		return
	}
	httpserver.WriteJSON(w, http.StatusCreated, toAccountResponse(account))
}

func (h *LedgerHandler) getAccount(w http.ResponseWriter, r *http.Request) {
	ctx := httpserver.ExtractContext(r)
	account, err := h.service.GetAccount(ctx, r.PathValue("number"))
	if err != nil {
		httpserver.WriteError(ctx, w, err)
		return
	}
	httpserver.WriteJSON(w, http.StatusOK, toAccountResponse(account))
}

func (h *LedgerHandler) listAccounts(w http.ResponseWriter, r *http.Request) {
	ctx := httpserver.ExtractContext(r)
	accounts, err := h.service.ListAccounts(ctx)
	if err != nil {
		httpserver.WriteError(ctx, w, err)
		return
	}
	out := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toAccountResponse(a))
	}
	httpserver.WriteJSON(w, http.StatusOK, out)
}

func (h *LedgerHandler) transfer(w http.ResponseWriter, r *http.Request) {
	ctx := httpserver.ExtractContext(r)
	var req application.TransferRequest
	if err := httpserver.DecodeJSON(r, &req); err != nil {
		httpserver.WriteError(ctx, w, err)
		return
	}
	record, err := h.service.Transfer(ctx, req.From, req.To, req.Amount)
	if err != nil {
		httpserver.WriteError(ctx, w, err)
		return
	}
	httpserver.WriteJSON(w, http.StatusCreated, toTransactionResponse(record))
}

func (h *LedgerHandler) listTransfers(w http.ResponseWriter, r *http.Request) {
	ctx := httpserver.ExtractContext(r)
	records, err := h.service.ListTransactions(ctx)
	if err != nil {
		httpserver.WriteError(ctx, w, err)
		return
	}
	out := make([]transactionResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, toTransactionResponse(rec))
	}
	httpserver.WriteJSON(w, http.StatusOK, out)
}
