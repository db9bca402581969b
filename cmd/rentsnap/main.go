// Command rentsnap is a terminal client for the RentSnap rental marketplace.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/redis/go-redis/v9"

	"rentsnap/internal/availability"
	"rentsnap/internal/client"
	"rentsnap/internal/config"
	"rentsnap/internal/logger"
	"rentsnap/internal/repository/remote"
	"rentsnap/internal/service"
	"rentsnap/internal/session"
)

type app struct {
	cfg   *config.Config
	data  *client.Client
	store session.Store

	auth          service.AuthService
	items         service.ItemService
	categories    service.CategoryService
	rentals       service.RentalService
	notifications service.NotificationService
	messages      service.MessageService
}

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatal(err)
	}
	if err := cfg.ValidateClient(); err != nil {
		fatal(err)
	}
	level := cfg.Log.Level
	if os.Getenv("LOG_LEVEL") == "" {
		level = "warn"
	}
	logger.InitializeWriter(os.Stderr, level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, closeFn, err := newApp(ctx, cfg)
	if err != nil {
		fatal(err)
	}
	defer closeFn()

	if err := a.run(ctx, flag.Arg(0), flag.Args()[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		closeFn()
		fatal(err)
	}
}

func newApp(ctx context.Context, cfg *config.Config) (*app, func(), error) {
	path := cfg.Client.SessionPath
	if path == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, nil, fmt.Errorf("locating config directory: %w", err)
		}
		path = filepath.Join(dir, "rentsnap", "session.db")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, nil, fmt.Errorf("creating session directory: %w", err)
	}
	store, err := session.OpenSQLite(path)
	if err != nil {
		return nil, nil, err
	}
	closers := []func(){func() { store.Close() }}

	sess, err := session.Resume(store)
	if errors.Is(err, session.ErrNoSession) {
		sess = session.Anonymous()
	} else if err != nil {
		store.Close()
		return nil, nil, err
	}

	opts := []client.Option{client.WithTTL(cfg.Client.CacheTTL)}
	if cfg.Client.CacheBackend == "redis" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("Redis unavailable, using the in-process cache", "addr", cfg.Redis.Addr, "error", err)
			rdb.Close()
		} else {
			opts = append(opts, client.WithCache(client.NewRedisCache(rdb, "")))
			closers = append(closers, func() { rdb.Close() })
		}
	}

	data := client.New(cfg.Client.BaseURL, sess, opts...)
	repos := remote.NewStore(data)

	notifications := service.NewNotificationService(repos.NotificationRepository)
	categories := service.NewCategoryService(repos.CategoryRepository)
	a := &app{
		cfg:           cfg,
		data:          data,
		store:         store,
		auth:          service.NewAuthService(repos.AuthRepository, store, data),
		categories:    categories,
		items:         service.NewItemService(repos.ItemRepository, repos.RequestRepository, categories),
		rentals:       service.NewRentalService(repos.RequestRepository, repos.ItemRepository, notifications, availability.NewCalculator()),
		notifications: notifications,
		messages:      service.NewMessageService(repos.ConversationRepository, notifications),
	}

	var once bool
	return a, func() {
		if once {
			return
		}
		once = true
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}, nil
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "rentsnap:", describeError(err))
	os.Exit(1)
}

func usage() {
	fmt.Fprint(os.Stderr, `Usage: rentsnap [-config file] <command> [arguments]

Account
  register -username U -email E -password P    create an account and sign in
  login -username U -password P                sign in
  logout                                       forget the stored session
  whoami                                       show the signed-in user

Items
  items [-search S] [-category ID] [-available] [-min P] [-max P] [-mine]
  item <id>                                    show an item and its booked dates
  categories
  add-item -name N -category C -price P [-deposit D] [-description T] [-location L] [-delivery M]
  edit-item <id> [-name N] [-category C] [-price P] [-deposit D] [-description T] [-location L]
  upload-image <id> <file>
  delete-item <id>

Rentals
  quote <item-id> <start> <end>                price and availability for a date range
  request <item-id> <start> <end>              ask to rent (dates are YYYY-MM-DD)
  rentals [-status S]                          requests you made
  lendings [-status S]                         requests for your items
  show <request-id>
  approve|reject|require-payment <request-id>  owner actions
  cancel <request-id>
  pay <request-id>                             simulate the payment
  handover <request-id> <code>                 confirm pick-up with the owner's code
  return <request-id> <code>                   confirm the return with the renter's code
  rate <request-id> <1-5>

Inbox
  notifications [-watch] [-interval D]
  read <notification-id>|all
  conversations
  chat <user-id> [-item ID]                    find or start a conversation
  messages <conversation-id>
  send <conversation-id> <text>
`)
}
