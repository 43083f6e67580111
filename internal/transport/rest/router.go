package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/expenseops/expense-approval/internal/auth"
	"github.com/expenseops/expense-approval/internal/category"
	"github.com/expenseops/expense-approval/internal/directexpense"
	"github.com/expenseops/expense-approval/internal/ledger"
	"github.com/expenseops/expense-approval/internal/project"
	"github.com/expenseops/expense-approval/internal/reimbursement"
	"github.com/expenseops/expense-approval/internal/transport/middleware"
	"github.com/expenseops/expense-approval/internal/transport/swagger"
	"github.com/expenseops/expense-approval/internal/user"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Auth          *auth.Handler
	Project       *project.Handler
	Category      *category.Handler
	Reimbursement *reimbursement.Handler
	DirectExpense *directexpense.Handler
	Ledger        *ledger.Handler
	User          *user.Handler
}

// RegisterAllRoutes mounts the role-prefixed API. The role middleware on each
// group rejects with 403 before any business logic runs; finer scope checks
// happen in the services.
func RegisterAllRoutes(router *chi.Mux, db *sql.DB, h Handlers, rbac *auth.RBACAuthorization, allowedOrigins string, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	router.Use(middleware.CORS(allowedOrigins))
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))

	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/login", h.Auth.Login)
			sr.Post("/refresh", h.Auth.RefreshToken)
			sr.Post("/logout", h.Auth.Logout)
		})

		// Active categories are a public read, matching the submission
		// forms that load before login.
		r.Get("/categories", h.Category.GetCategories)
		r.Get("/categories/{id}", h.Category.GetCategory)

		r.Route("/staff", func(sr chi.Router) {
			sr.Use(h.Auth.AuthMiddleware)
			sr.Use(rbac.RequireRole(auth.RoleStaff))

			sr.Route("/reimbursements", func(rr chi.Router) {
				rr.Post("/", h.Reimbursement.Submit)
				rr.Get("/", h.Reimbursement.ListOwn)
				rr.Get("/{id}", h.Reimbursement.GetReimbursement)
			})

			// Staff need the project list to fill the submission form.
			sr.Get("/projects", h.Project.GetProjects)
		})

		r.Route("/finance", func(fr chi.Router) {
			fr.Use(h.Auth.AuthMiddleware)
			fr.Use(rbac.RequireRole(auth.RoleFinance, auth.RoleAdmin))

			fr.Route("/reimbursements", func(rr chi.Router) {
				rr.Get("/", h.Reimbursement.ListAll)
				rr.Get("/{id}", h.Reimbursement.GetReimbursement)
				rr.Post("/{id}/review", h.Reimbursement.Review)
				rr.Post("/{id}/reject", h.Reimbursement.RejectByFinance)
				rr.Post("/{id}/pay", h.Reimbursement.MarkPaid)
			})

			fr.Route("/direct-expenses", func(dr chi.Router) {
				dr.Post("/", h.DirectExpense.Create)
				dr.Get("/", h.DirectExpense.ListAll)
				dr.Get("/{id}", h.DirectExpense.GetRequest)
				dr.Post("/{id}/pay", h.DirectExpense.MarkPaid)
			})

			fr.Route("/expenses", func(er chi.Router) {
				er.Get("/", h.Ledger.ListExpenses)
				er.Get("/{id}", h.Ledger.GetExpense)
			})

			fr.Route("/reports", func(rr chi.Router) {
				rr.Use(rbac.RequireCapability(auth.ResourceReport, auth.ActionRead))
				rr.Get("/monthly", h.Ledger.MonthlyReport)
				rr.Get("/categories", h.Ledger.CategoryReport)
			})
		})

		r.Route("/admin", func(ar chi.Router) {
			ar.Use(h.Auth.AuthMiddleware)
			ar.Use(rbac.RequireRole(auth.RoleAdmin))

			ar.Route("/reimbursements", func(rr chi.Router) {
				rr.Get("/", h.Reimbursement.ListAll)
				rr.Get("/{id}", h.Reimbursement.GetReimbursement)
				rr.Post("/{id}/approve", h.Reimbursement.Approve)
				rr.Post("/{id}/reject", h.Reimbursement.RejectByAdmin)
			})

			ar.Route("/direct-expenses", func(dr chi.Router) {
				dr.Get("/", h.DirectExpense.ListAll)
				dr.Get("/{id}", h.DirectExpense.GetRequest)
				dr.Post("/{id}/approve", h.DirectExpense.Approve)
				dr.Post("/{id}/reject", h.DirectExpense.Reject)
			})

			ar.Route("/projects", func(pr chi.Router) {
				pr.Post("/", h.Project.CreateProject)
				pr.Get("/", h.Project.GetProjects)
				pr.Get("/{id}", h.Project.GetProject)
				pr.Patch("/{id}/status", h.Project.UpdateStatus)
				pr.Patch("/{id}/value", h.Project.UpdateValue)
				pr.Get("/{id}/revisions", h.Project.GetRevisions)
			})

			ar.Route("/categories", func(cr chi.Router) {
				cr.Post("/", h.Category.CreateCategory)
				cr.Patch("/{id}", h.Category.UpdateCategory)
				cr.Post("/{id}/deactivate", h.Category.DeactivateCategory)
			})

			ar.Route("/users", func(ur chi.Router) {
				ur.Post("/", h.User.CreateUser)
				ur.Get("/", h.User.ListUsers)
				ur.Get("/{id}", h.User.GetUser)
				ur.Post("/{id}/deactivate", h.User.DeactivateUser)
			})
		})
	})
}
