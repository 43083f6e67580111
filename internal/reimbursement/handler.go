package reimbursement

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

var errInvalidBody = errors.NewValidationError("invalid request body", errors.ErrCodeValidationFailed)

type ServiceAPI interface {
	Submit(dto SubmitReimbursementDTO, actor *auth.User) (*Reimbursement, error)
	GetReimbursement(id int64, actor *auth.User) (*Reimbursement, error)
	ListOwn(actor *auth.User, limit, offset int) ([]*Reimbursement, error)
	ListAll(actor *auth.User, limit, offset int) ([]*Reimbursement, error)
	Review(id int64, dto ReviewDTO, actor *auth.User) (*Reimbursement, error)
	Approve(id int64, dto ApproveDTO, actor *auth.User) (*Reimbursement, error)
	RejectByFinance(id int64, dto RejectDTO, actor *auth.User) (*Reimbursement, error)
	RejectByAdmin(id int64, dto RejectDTO, actor *auth.User) (*Reimbursement, error)
	MarkPaid(id int64, dto MarkPaidDTO, actor *auth.User) (*Reimbursement, error)
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

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto SubmitReimbursementDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claim, err := h.Service.Submit(dto, user)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, claim)
}

func (h *Handler) GetReimbursement(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := h.parseID(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid reimbursement ID")
		return
	}

	claim, err := h.Service.GetReimbursement(id, user)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, claim)
}

func (h *Handler) ListOwn(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	limit, offset := transport.Pagination(r)
	claims, err := h.Service.ListOwn(user, limit, offset)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.writeList(w, claims, limit, offset)
}

func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	limit, offset := transport.Pagination(r)
	claims, err := h.Service.ListAll(user, limit, offset)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.writeList(w, claims, limit, offset)
}

func (h *Handler) Review(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(id int64, body []byte, user *auth.User) (*Reimbursement, error) {
		var dto ReviewDTO
		if len(body) > 0 {
			if err := json.Unmarshal(body, &dto); err != nil {
				return nil, errInvalidBody
			}
		}
		return h.Service.Review(id, dto, user)
	})
}

func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(id int64, body []byte, user *auth.User) (*Reimbursement, error) {
		var dto ApproveDTO
		if len(body) > 0 {
			if err := json.Unmarshal(body, &dto); err != nil {
				return nil, errInvalidBody
			}
		}
		return h.Service.Approve(id, dto, user)
	})
}

func (h *Handler) RejectByFinance(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(id int64, body []byte, user *auth.User) (*Reimbursement, error) {
		var dto RejectDTO
		if err := json.Unmarshal(body, &dto); err != nil {
			return nil, errInvalidBody
		}
		return h.Service.RejectByFinance(id, dto, user)
	})
}

func (h *Handler) RejectByAdmin(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(id int64, body []byte, user *auth.User) (*Reimbursement, error) {
		var dto RejectDTO
		if err := json.Unmarshal(body, &dto); err != nil {
			return nil, errInvalidBody
		}
		return h.Service.RejectByAdmin(id, dto, user)
	})
}

func (h *Handler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(id int64, body []byte, user *auth.User) (*Reimbursement, error) {
		var dto MarkPaidDTO
		if err := json.Unmarshal(body, &dto); err != nil {
			return nil, errInvalidBody
		}
		return h.Service.MarkPaid(id, dto, user)
	})
}

// transition factors the shared plumbing of the workflow endpoints: resolve
// the actor, parse the path ID, read the body, run the operation.
func (h *Handler) transition(w http.ResponseWriter, r *http.Request, op func(id int64, body []byte, user *auth.User) (*Reimbursement, error)) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := h.parseID(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid reimbursement ID")
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claim, err := op(id, body, user)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, claim)
}

func (h *Handler) writeList(w http.ResponseWriter, claims []*Reimbursement, limit, offset int) {
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"reimbursements": claims,
		"limit":          limit,
		"offset":         offset,
	})
}

func (h *Handler) parseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
