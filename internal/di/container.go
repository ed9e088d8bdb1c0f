package di

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flexipay/wallet-service/internal/config"
	gw "github.com/flexipay/wallet-service/internal/domain/gateway"
	domnotify "github.com/flexipay/wallet-service/internal/domain/notify"
	"github.com/flexipay/wallet-service/internal/infrastructure/api/handlers"
	"github.com/flexipay/wallet-service/internal/infrastructure/database"
	"github.com/flexipay/wallet-service/internal/infrastructure/database/repositories"
	"github.com/flexipay/wallet-service/internal/infrastructure/gateway"
	"github.com/flexipay/wallet-service/internal/infrastructure/notify"
	"github.com/flexipay/wallet-service/internal/usecases/interactor"
)

type Container struct {
	WalletHandler        *handlers.WalletHandler
	AdminHandler         *handlers.AdminHandler
	UserInteractor       *interactor.UserInteractor
	PaymentInteractor    *interactor.PaymentInteractor
	ReconcileInteractor  *interactor.ReconcileInteractor
	WithdrawalInteractor *interactor.WithdrawalInteractor
	AdminInteractor      *interactor.AdminInteractor
}

// NewContainer wires the repositories, gateway client, notifier and
// interactors together. Configuration strings are parsed here, once.
func NewContainer(db *pgxpool.Pool, cfg *config.Config) (*Container, error) {
	fees, err := interactor.NewFeePolicy(cfg.Fees)
	if err != nil {
		return nil, fmt.Errorf("fee policy: %w", err)
	}

	gatewayTimeout, err := seconds(cfg.Reconciler.GatewayTimeoutSeconds)
	if err != nil {
		return nil, fmt.Errorf("gateway timeout: %w", err)
	}
	windowHours, err := strconv.Atoi(cfg.Reconciler.WindowHours)
	if err != nil {
		return nil, fmt.Errorf("reconcile window: %w", err)
	}

	store := database.NewStore(db)
	transactionRepository := repositories.NewTransactionRepositoryImpl(db)
	userRepository := repositories.NewUserRepositoryImpl(db)

	var gatewayClient gw.Client = gateway.NewHTTPClient(cfg.Gateway, gatewayTimeout)

	notifier, err := buildNotifier(cfg.Telegram)
	if err != nil {
		return nil, fmt.Errorf("notifier: %w", err)
	}

	userInteractor := interactor.NewUserInteractor(userRepository, transactionRepository)
	paymentInteractor := interactor.NewPaymentInteractor(store, transactionRepository, userRepository, gatewayClient, notifier, fees)
	withdrawalInteractor := interactor.NewWithdrawalInteractor(store, transactionRepository, userRepository, notifier, fees)
	adminInteractor := interactor.NewAdminInteractor(store, transactionRepository, userRepository, gatewayClient, notifier)
	profitInteractor := interactor.NewProfitInteractor(transactionRepository)
	reconcileInteractor := interactor.NewReconcileInteractor(
		transactionRepository,
		gatewayClient,
		paymentInteractor,
		time.Duration(windowHours)*time.Hour,
		gatewayTimeout,
	)

	walletHandler := handlers.NewWalletHandler(paymentInteractor, withdrawalInteractor, userInteractor)
	adminHandler := handlers.NewAdminHandler(adminInteractor, profitInteractor)

	return &Container{
		WalletHandler:        walletHandler,
		AdminHandler:         adminHandler,
		UserInteractor:       userInteractor,
		PaymentInteractor:    paymentInteractor,
		ReconcileInteractor:  reconcileInteractor,
		WithdrawalInteractor: withdrawalInteractor,
		AdminInteractor:      adminInteractor,
	}, nil
}

// buildNotifier picks the Telegram notifier when a bot token is configured
// and falls back to a no-op otherwise.
func buildNotifier(cfg config.Telegram) (domnotify.Notifier, error) {
	if cfg.BotToken == "" {
		return notify.NewNoopNotifier(), nil
	}

	var chatIDs []int64
	for _, raw := range strings.Split(cfg.AdminChatIDs, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("admin chat id %q: %w", raw, err)
		}
		chatIDs = append(chatIDs, id)
	}

	return notify.NewTelegramNotifier(cfg.BotToken, chatIDs)
}

func seconds(raw string) (time.Duration, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	return time.Duration(n) * time.Second, nil
}
