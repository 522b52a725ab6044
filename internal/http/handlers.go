package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"dailymoney/internal/budget"
	"dailymoney/internal/core"
	"dailymoney/internal/format"
	"dailymoney/internal/syncer"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

type createTransactionRequest struct {
	Amount   string `json:"amount"`
	Category string `json:"category"`
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	switch r.Method {
	case http.MethodGet:
		transactions, err := s.store.Transactions(ctx)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if transactions == nil {
			transactions = []core.Transaction{}
		}
		writeJSON(w, http.StatusOK, transactions)

	case http.MethodPost:
		var req createTransactionRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		transaction := core.New(strings.TrimSpace(req.Amount), strings.TrimSpace(req.Category))
		if err := transaction.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		transactions, err := s.store.Transactions(ctx)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		transactions = append(transactions, transaction)
		if err := s.store.SaveTransactions(ctx, transactions); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		slog.InfoContext(ctx, "Transaction recorded",
			"id", transaction.ID,
			"category", transaction.Category)
		writeJSON(w, http.StatusCreated, transaction)

	case http.MethodDelete:
		// Clearing the log also forgets the sync point.
		if err := s.store.SaveTransactions(ctx, nil); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if err := s.store.SetLastSync(ctx, 0); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleTransactionByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		methodNotAllowed(w)
		return
	}
	ctx := r.Context()
	id := strings.TrimPrefix(r.URL.Path, "/api/transactions/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing transaction id")
		return
	}

	transactions, err := s.store.Transactions(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	kept := transactions[:0]
	for _, t := range transactions {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	if len(kept) == len(transactions) {
		writeError(w, http.StatusNotFound, "transaction not found")
		return
	}
	if err := s.store.SaveTransactions(ctx, kept); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type budgetView struct {
	MonthlyAmount     float64 `json:"monthly_amount"`
	DailyAllowance    float64 `json:"daily_allowance"`
	TodaySpent        float64 `json:"today_spent"`
	RemainingToday    float64 `json:"remaining_today"`
	MonthSpent        float64 `json:"month_spent"`
	LastSync          float64 `json:"last_sync"`
	HasUnsynchronized bool    `json:"has_unsynchronized"`
}

type updateBudgetRequest struct {
	MonthlyAmount float64 `json:"monthly_amount"`
}

func (s *Server) handleBudget(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	switch r.Method {
	case http.MethodGet:
		transactions, err := s.store.Transactions(ctx)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		monthly, err := s.store.MonthlyAmount(ctx)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		lastSync, err := s.store.LastSync(ctx)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		now := time.Now()
		allowance := s.allocator.DailyAllowance(ctx, monthly, transactions, now)
		todaySpent := budget.TodaySpent(transactions, now)

		writeJSON(w, http.StatusOK, budgetView{
			MonthlyAmount:     monthly,
			DailyAllowance:    allowance,
			TodaySpent:        todaySpent,
			RemainingToday:    allowance - todaySpent,
			MonthSpent:        budget.MonthSpent(transactions, now),
			LastSync:          lastSync,
			HasUnsynchronized: syncer.HasUnsynchronized(transactions, lastSync),
		})

	case http.MethodPut:
		var req updateBudgetRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.MonthlyAmount <= 0 {
			writeError(w, http.StatusBadRequest, "monthly_amount must be positive")
			return
		}
		if err := s.store.SetMonthlyAmount(ctx, req.MonthlyAmount); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		methodNotAllowed(w)
	}
}

type settingsRequest struct {
	Token      *string `json:"token"`
	DocumentID *string `json:"document_id"`
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	switch r.Method {
	case http.MethodGet:
		token, err := s.store.Token(ctx)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		documentID, err := s.store.DocumentID(ctx)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"has_token":   token != "",
			"document_id": documentID,
		})

	case http.MethodPut:
		var req settingsRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.Token != nil {
			if *req.Token == "" {
				err := s.store.ClearToken(ctx)
				if err != nil {
					writeError(w, http.StatusInternalServerError, err.Error())
					return
				}
			} else if err := s.store.SetToken(ctx, *req.Token); err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
		}
		if req.DocumentID != nil {
			if *req.DocumentID == "" {
				err := s.store.ClearDocumentID(ctx)
				if err != nil {
					writeError(w, http.StatusInternalServerError, err.Error())
					return
				}
			} else if err := s.store.SetDocumentID(ctx, *req.DocumentID); err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	ctx := r.Context()

	merged, err := s.syncer.Run(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Sync failed", "error", err)
		writeSyncError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"transactions": merged,
		"last_sync":    syncer.MaxTimestamp(merged),
	})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	ctx := r.Context()

	day := time.Now()
	if v := strings.TrimSpace(r.URL.Query().Get("date")); v != "" {
		parsed, err := time.ParseInLocation("2006-01-02", v, time.Local)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
			return
		}
		day = parsed
	}

	transactions, err := s.store.Transactions(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(format.FormatTransactionsForDate(transactions, day)))
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	ctx := r.Context()

	transactions, err := s.store.Transactions(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	filename := fmt.Sprintf("Log_%s.txt", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	_, _ = w.Write([]byte(format.FormatTransactions(transactions)))
}
