package directexpense

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	errors "github.com/expenseops/expense-approval/internal"
	"github.com/expenseops/expense-approval/internal/auth"
	"github.com/expenseops/expense-approval/internal/transport"
	"github.com/expenseops/expense-approval/pkg/logger"
)

type ServiceAPI interface {
	Create(dto CreateDirectExpenseDTO, actor *auth.User) (*DirectExpenseRequest, error)
	GetRequest(id int64, actor *auth.User) (*DirectExpenseRequest, error)
	ListAll(actor *auth.User, limit, offset int) ([]*DirectExpenseRequest, error)
	Approve(id int64, dto ApproveDTO, actor *auth.User) (*DirectExpenseRequest, error)
	Reject(id int64, dto RejectDTO, actor *auth.User) (*DirectExpenseRequest, error)
	MarkPaid(id int64, dto MarkPaidDTO, actor *auth.User) (*DirectExpenseRequest, error)
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

var errInvalidBody = errors.NewValidationError("invalid request body", errors.ErrCodeValidationFailed)

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto CreateDirectExpenseDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req, err := h.Service.Create(dto, user)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, req)
}

func (h *Handler) GetRequest(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := h.parseID(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request ID")
		return
	}

	req, err := h.Service.GetRequest(id, user)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, req)
}

func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	limit, offset := transport.Pagination(r)
	requests, err := h.Service.ListAll(user, limit, offset)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"direct_expenses": requests,
		"limit":           limit,
		"offset":          offset,
	})
}

func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(id int64, body []byte, user *auth.User) (*DirectExpenseRequest, error) {
		var dto ApproveDTO
		if len(body) > 0 {
			if err := json.Unmarshal(body, &dto); err != nil {
				return nil, errInvalidBody
			}
		}
		return h.Service.Approve(id, dto, user)
	})
}

func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(id int64, body []byte, user *auth.User) (*DirectExpenseRequest, error) {
		var dto RejectDTO
		if err := json.Unmarshal(body, &dto); err != nil {
			return nil, errInvalidBody
		}
		return h.Service.Reject(id, dto, user)
	})
}

func (h *Handler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(id int64, body []byte, user *auth.User) (*DirectExpenseRequest, error) {
		var dto MarkPaidDTO
		if err := json.Unmarshal(body, &dto); err != nil {
			return nil, errInvalidBody
		}
		return h.Service.MarkPaid(id, dto, user)
	})
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, op func(id int64, body []byte, user *auth.User) (*DirectExpenseRequest, error)) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := h.parseID(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request ID")
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req, err := op(id, body, user)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, req)
}

func (h *Handler) parseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
