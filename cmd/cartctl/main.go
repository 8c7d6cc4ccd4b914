// Command cartctl drives a cart session from the terminal against a running
// storefront API.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/hearthbakery/storefront/internal/cart"
	"github.com/hearthbakery/storefront/internal/domain"
	"github.com/hearthbakery/storefront/internal/logger"
	"github.com/hearthbakery/storefront/internal/publisher"
	"github.com/hearthbakery/storefront/internal/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type options struct {
	api      string
	store    string
	state    string
	profile  string
	mongoURI string
	mongoDB  string
	timeout  time.Duration
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "cartctl:", err)
		os.Exit(1)
	}
}

func defaultStateDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "cartctl")
	}
	return ".cartctl"
}

func run(ctx context.Context, args []string, out io.Writer) error {
	var opts options
	fs := flag.NewFlagSet("cartctl", flag.ContinueOnError)
	fs.StringVar(&opts.api, "api", "http://localhost:8080", "storefront API base URL")
	fs.StringVar(&opts.store, "store", "file", "snapshot store: file or mongo")
	fs.StringVar(&opts.state, "state", defaultStateDir(), "snapshot directory for the file store")
	fs.StringVar(&opts.profile, "profile", "default", "cart profile name")
	fs.StringVar(&opts.mongoURI, "mongo-uri", "mongodb://localhost:27017", "MongoDB URI for the mongo store")
	fs.StringVar(&opts.mongoDB, "mongo-db", "storefront", "MongoDB database for the mongo store")
	fs.DurationVar(&opts.timeout, "timeout", 20*time.Second, "per-command timeout")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("missing command")
	}

	// watch blocks until its event arrives, so only other commands are bounded.
	if fs.Arg(0) != "watch" {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}

	log, err := logger.New("warn", false)
	if err != nil {
		return err
	}
	defer log.Sync()

	storage, closeStore, err := openStorage(ctx, opts)
	if err != nil {
		return err
	}
	defer closeStore()

	key := "cart:" + opts.profile
	if fs.Arg(0) == "forget" {
		if err := storage.Delete(ctx, key); err != nil {
			return err
		}
		fmt.Fprintf(out, "profile %s forgotten\n", opts.profile)
		return nil
	}

	client := cart.NewClient(opts.api, &http.Client{Timeout: opts.timeout})
	m, err := cart.NewManager(ctx, storage, key, client, log)
	if err != nil {
		return err
	}

	return dispatch(ctx, m, fs.Arg(0), fs.Args()[1:], out, log)
}

// snapshotStore is a cart.Storage that can also drop a profile.
type snapshotStore interface {
	cart.Storage
	Delete(ctx context.Context, key string) error
}

func openStorage(ctx context.Context, opts options) (snapshotStore, func(), error) {
	switch opts.store {
	case "file":
		s, err := repository.NewFileSnapshotStore(opts.state)
		return s, func() {}, err
	case "mongo":
		db, err := repository.ConnectMongoDB(ctx, opts.mongoURI, opts.mongoDB)
		if err != nil {
			return nil, nil, err
		}
		s := repository.NewMongoSnapshotStore(db)
		if err := s.CreateIndexes(ctx); err != nil {
			return nil, nil, err
		}
		return s, func() { _ = db.Client().Disconnect(context.Background()) }, nil
	default:
		return nil, nil, fmt.Errorf("unknown store %q", opts.store)
	}
}

func dispatch(ctx context.Context, m *cart.Manager, cmd string, args []string, out io.Writer, log *zap.SugaredLogger) error {
	switch cmd {
	case "show":
		return show(m, out)
	case "add":
		return add(ctx, m, args, out)
	case "update":
		if len(args) != 2 {
			return errors.New("usage: update <variantId> <qty>")
		}
		q, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid quantity %q", args[1])
		}
		if err := m.UpdateQuantity(ctx, args[0], q); err != nil {
			return err
		}
		return show(m, out)
	case "remove":
		if len(args) != 1 {
			return errors.New("usage: remove <variantId>")
		}
		if err := m.RemoveItem(ctx, args[0]); err != nil {
			return err
		}
		return show(m, out)
	case "clear":
		if err := m.ClearCart(ctx); err != nil {
			return err
		}
		return show(m, out)
	case "open":
		if err := m.Open(ctx); err != nil {
			return err
		}
		return panelState(m, out)
	case "close":
		if err := m.Close(ctx); err != nil {
			return err
		}
		return panelState(m, out)
	case "toggle":
		if err := m.Toggle(ctx); err != nil {
			return err
		}
		return panelState(m, out)
	case "checkout":
		url, err := m.CreateCheckout(ctx)
		if err != nil {
			var ce *cart.CheckoutError
			if errors.As(err, &ce) {
				log.Debugw("checkout failed", "status", ce.Status, "err", ce.Err)
				return errors.New(ce.Message)
			}
			return err
		}
		fmt.Fprintln(out, url)
		return nil
	case "watch":
		return watch(ctx, m, args, out, log)
	case "status":
		cleared, err := m.SyncCompletion(ctx)
		if err != nil {
			return err
		}
		if cleared {
			fmt.Fprintln(out, "order completed, cart cleared")
		} else {
			fmt.Fprintln(out, "no completed order for this cart")
		}
		return nil
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func add(ctx context.Context, m *cart.Manager, args []string, out io.Writer) error {
	if len(args) < 2 {
		return errors.New("usage: add <variantId> <qty> [-price 4.50] [-currency USD] [-available N] [-title T]")
	}
	q, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid quantity %q", args[1])
	}

	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	price := fs.String("price", "0", "unit price")
	currency := fs.String("currency", "USD", "currency code")
	available := fs.Int("available", -1, "known stock; negative means unknown")
	title := fs.String("title", "", "product title")
	if err := fs.Parse(args[2:]); err != nil {
		return err
	}

	amount, err := decimal.NewFromString(*price)
	if err != nil {
		return fmt.Errorf("invalid price %q", *price)
	}

	line := domain.CartLine{
		VariantID: args[0],
		UnitPrice: domain.Money{Amount: amount, CurrencyCode: *currency},
		Quantity:  q,
		Display:   domain.DisplayMetadata{ProductTitle: *title},
	}
	if *available >= 0 {
		line.AvailableQuantity = available
	}
	if err := m.AddItem(ctx, line); err != nil {
		return err
	}
	return show(m, out)
}

// watch consumes cart completion events until one matches this cart, then
// clears it.
func watch(ctx context.Context, m *cart.Manager, args []string, out io.Writer, log *zap.SugaredLogger) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	brokers := fs.String("brokers", "localhost:9092", "comma-separated Kafka brokers")
	topic := fs.String("topic", "cart-completed", "cart completion topic")
	group := fs.String("group", "", "consumer group; defaults to cartctl-<clientCartId>")
	if err := fs.Parse(args); err != nil {
		return err
	}

	id := m.ClientCartID()
	if *group == "" {
		*group = "cartctl-" + id
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	consumer := publisher.NewCompletionConsumer(*topic, *group, log, strings.Split(*brokers, ",")...)
	defer consumer.Close()

	fmt.Fprintf(out, "waiting for order on cart %s\n", id)
	return consumer.Run(ctx, func(ctx context.Context, ev domain.CartCompleted) error {
		if ev.ClientCartID != id {
			return nil
		}
		if err := m.ClearCart(ctx); err != nil {
			return err
		}
		number := "unknown"
		if ev.OrderNumber != nil {
			number = *ev.OrderNumber
		}
		fmt.Fprintf(out, "order %s completed, cart cleared\n", number)
		return publisher.ErrStop
	})
}

func panelState(m *cart.Manager, out io.Writer) error {
	if m.IsOpen() {
		_, err := fmt.Fprintln(out, "cart panel open")
		return err
	}
	_, err := fmt.Fprintln(out, "cart panel closed")
	return err
}

type view struct {
	cart.State
	Totals cart.Totals `json:"totals"`
}

func show(m *cart.Manager, out io.Writer) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(view{State: m.Snapshot(), Totals: m.Totals()})
}
