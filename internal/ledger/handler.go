package ledger

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"

	"github.com/expenseops/expense-approval/internal/auth"
	"github.com/expenseops/expense-approval/internal/transport"
	"github.com/expenseops/expense-approval/pkg/logger"
)

type ServiceAPI interface {
	ListExpenses(filter Filter, limit, offset int, actor *auth.User) ([]*Expense, error)
	GetExpense(id int64, actor *auth.User) (*Expense, error)
	MonthlyReport(year int, actor *auth.User) ([]MonthlyTotal, error)
	CategoryReport(from, to time.Time, actor *auth.User) ([]CategoryTotal, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

func (h *Handler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	filter := filterFromQuery(r)
	limit, offset := transport.Pagination(r)
	expenses, err := h.Service.ListExpenses(filter, limit, offset, user)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"expenses": expenses,
		"limit":    limit,
		"offset":   offset,
	})
}

func (h *Handler) GetExpense(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid expense ID")
		return
	}

	expense, err := h.Service.GetExpense(id, user)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, expense)
}

func (h *Handler) MonthlyReport(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	year, _ := strconv.Atoi(r.URL.Query().Get("year"))
	totals, err := h.Service.MonthlyReport(year, user)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"months": totals})
}

func (h *Handler) CategoryReport(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	from := parseDate(r.URL.Query().Get("from"))
	to := parseDate(r.URL.Query().Get("to"))
	totals, err := h.Service.CategoryReport(from, to, user)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"categories": totals})
}

func filterFromQuery(r *http.Request) Filter {
	q := r.URL.Query()
	var f Filter
	if st := q.Get("source_type"); st != "" {
		f.SourceType = SourceType(st)
	}
	if v, err := strconv.ParseInt(q.Get("project_id"), 10, 64); err == nil {
		f.ProjectID = v
	}
	if v, err := strconv.ParseInt(q.Get("category_id"), 10, 64); err == nil {
		f.CategoryID = v
	}
	f.From = parseDate(q.Get("from"))
	f.To = parseDate(q.Get("to"))
	return f
}

func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}
	}
	return t
}
