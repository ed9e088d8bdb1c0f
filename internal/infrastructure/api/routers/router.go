package routers

import (
	"fmt"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/flexipay/wallet-service/internal/config"
	"github.com/flexipay/wallet-service/internal/di"
	http2 "github.com/flexipay/wallet-service/internal/infrastructure/api/http"
	"github.com/flexipay/wallet-service/internal/infrastructure/api/middlewares"
)

func NewRouter(container *di.Container, cfg *config.Config) *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Route(fmt.Sprintf("/{%s}", http2.UserIDParam), func(r chi.Router) {
				r.Use(middlewares.UserMiddleware(container.UserInteractor))
				wh := container.WalletHandler
				r.Route("/deposits", func(r chi.Router) {
					r.Post("/", wh.CreateDeposit)
					r.Post(fmt.Sprintf("/{%s}/verify", http2.TxIDParam), wh.VerifyDeposit)
				})
				r.Post("/withdrawals", wh.RequestWithdrawal)
				r.Get("/balance", wh.GetWallet)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middlewares.AdminMiddleware(cfg.Server.AdminToken))
			ah := container.AdminHandler
			r.Route("/withdrawals", func(r chi.Router) {
				r.Get("/", ah.ListPendingWithdrawals)
				r.Post(fmt.Sprintf("/{%s}/approve", http2.TxIDParam), ah.ApproveWithdrawal)
				r.Post(fmt.Sprintf("/{%s}/reject", http2.TxIDParam), ah.RejectWithdrawal)
			})
			r.Get("/profit", ah.GetProfit)
			r.Route("/users", func(r chi.Router) {
				r.Get("/", ah.ListUsersWithBalance)
				r.Put(fmt.Sprintf("/{%s}/balance", http2.UserIDParam), ah.SetBalance)
			})
		})
	})

	return router
}
