package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ordering/internal/config"
	"ordering/internal/domain/pricing"
	"ordering/internal/handler"
	"ordering/internal/infra/cache"
	"ordering/internal/infra/db"
	"ordering/internal/infra/mail"
	"ordering/internal/infra/payment"
	"ordering/internal/infra/queue"
	infraRepo "ordering/internal/infra/repository"
	"ordering/internal/infra/ws"
	"ordering/internal/logging"
	"ordering/internal/server"
	"ordering/internal/usecase"
	"ordering/internal/validator"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
)

func main() {
	//.envは無くてもよい（本番は環境変数）
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		panic(err)
	}

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logging.Init("ordering-api", cfg.LogFile, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//DB接続
	gormDB, err := db.Connect(cfg.DSN())
	if err != nil {
		log.Error("db connect", "err", err)
		os.Exit(1)
	}
	if err := db.Migrate(gormDB); err != nil {
		log.Error("db migrate", "err", err)
		os.Exit(1)
	}

	//Repository（GORM実装）生成
	menuRepo := infraRepo.NewMenuItemGormRepository(gormDB)
	cartRepo := infraRepo.NewCartGormRepository(gormDB)
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	orderItemRepo := infraRepo.NewOrderItemGormRepository(gormDB)
	statusRepo := infraRepo.NewOrderStatusGormRepository(gormDB)
	notificationRepo := infraRepo.NewNotificationGormRepository(gormDB)
	txm := infraRepo.NewTxManagerGorm(gormDB)

	if cfg.SeedMenu {
		n, err := db.SeedMenu(ctx, menuRepo)
		if err != nil {
			log.Error("seed menu", "err", err)
			os.Exit(1)
		}
		if n > 0 {
			log.Info("menu seeded", "items", n)
		}
	}

	//Redis（任意）。nil の interface のまま渡すと usecase 側で無効扱い
	var (
		idem      usecase.IdempotencyStore
		menuCache usecase.MenuCache
	)
	if cfg.RedisEnabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			// 起動時に落ちていても注文はDBの制約で守られる
			log.Warn("redis ping failed", "addr", cfg.RedisAddr, "err", err)
		}
		idem = cache.NewRedisIdempotencyStore(rdb, cfg.IdempotencyTTL)
		menuCache = cache.NewRedisMenuCache(rdb, cfg.MenuCacheTTL)
	}

	//RabbitMQ（任意）
	var publisher usecase.EventPublisher
	if cfg.RabbitMQEnabled() {
		conn, err := amqp.Dial(cfg.RabbitMQURL)
		if err != nil {
			log.Error("rabbitmq dial", "err", err)
			os.Exit(1)
		}
		defer conn.Close()
		ch, err := conn.Channel()
		if err != nil {
			log.Error("rabbitmq channel", "err", err)
			os.Exit(1)
		}
		defer ch.Close()
		p, err := queue.NewRabbitPublisher(ch)
		if err != nil {
			log.Error("rabbitmq setup", "err", err)
			os.Exit(1)
		}
		publisher = p
	}

	//メール（任意）
	var mailer usecase.OrderMailer
	if cfg.EmailEnabled() {
		mailer = mail.NewPostmarkAlertMailer(cfg.PostmarkServerToken, cfg.AlertEmailFrom, cfg.AlertEmailTo)
	}

	hub := ws.NewNotificationHub()
	go hub.Run(ctx)

	processor := payment.NewStripeProcessor(cfg.StripeSecretKey, cfg.Currency)
	policy := pricing.Policy{TaxRate: cfg.TaxRate, DeliveryFee: cfg.DeliveryFee}

	//Usecase生成
	notifyUC := usecase.NewNotificationUsecase(notificationRepo, hub, publisher, mailer)
	cartUC := usecase.NewCartUsecase(cartRepo, menuRepo, policy)
	paymentUC := usecase.NewPaymentUsecase(processor, cartRepo, policy, cfg.MinChargeCents)
	orderUC := usecase.NewOrderUsecase(txm, orderRepo, orderItemRepo, processor, idem, validator.NewCheckoutValidator(), notifyUC, policy)
	statusUC := usecase.NewOrderStatusUsecase(txm, statusRepo, notifyUC)
	menuUC := usecase.NewMenuUsecase(menuRepo, menuCache)

	// seed直後の古い一覧を残さない
	if err := menuUC.InvalidateCache(ctx); err != nil {
		log.Warn("menu cache invalidate", "err", err)
	}

	if cfg.CartTTL > 0 {
		go runCartReaper(ctx, cartUC, cfg.CartTTL, cfg.CartReapInterval)
	}

	//Handler生成
	e := server.New(
		handler.NewMenuHandler(menuUC),
		handler.NewCartHandler(cartUC),
		handler.NewPaymentHandler(paymentUC),
		handler.NewOrderHandler(orderUC),
		handler.NewOrderStatusHandler(statusUC),
		handler.NewNotificationHandler(notifyUC, hub.Handle),
	)

	//Server起動
	if err := server.Start(ctx, cfg.Addr(), e); err != nil {
		log.Error("server", "err", err)
		os.Exit(1)
	}
}

// 放置カートを定期的に消す
func runCartReaper(ctx context.Context, uc *usecase.CartUsecase, ttl, interval time.Duration) {
	log := logging.New("cart-reaper")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := uc.ReapAbandoned(ctx, ttl)
			if err != nil {
				log.Warn("reap abandoned carts", "err", err)
				continue
			}
			if n > 0 {
				log.Info("abandoned carts reaped", "lines", n)
			}
		}
	}
}
