package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pixil98/go-tacklebox/internal/catalog"
	"github.com/pixil98/go-tacklebox/internal/driver"
	"github.com/pixil98/go-tacklebox/internal/grant"
	"github.com/pixil98/go-tacklebox/internal/item"
	"github.com/pixil98/go-tacklebox/internal/messaging"
	"github.com/pixil98/go-tacklebox/internal/state"
	"github.com/pixil98/go-tacklebox/internal/storage"
)

// grantbot connects to a running tackle service as one player, asks for
// a set of grants and prints the inventory once the server has answered.
func main() {
	var (
		url     = flag.String("url", "nats://127.0.0.1:4222", "nats url")
		subject = flag.String("subject", "grants", "grant request subject")
		assets  = flag.String("catalog", "assets/items", "item catalog directory")
		owner   = flag.String("owner", "", "player id (random when empty)")
		grants  = flag.String("grants", "", "comma separated definition:amount pairs")
		source  = flag.String("source", "shop", "grant source")
		wait    = flag.Duration("wait", 5*time.Second, "how long to wait for answers")
	)
	flag.Parse()

	if err := run(*url, *subject, *assets, *owner, *grants, *source, *wait); err != nil {
		slog.Error("grantbot failed", "error", err)
		os.Exit(1)
	}
}

func run(url, subject, assets, ownerFlag, grantsFlag, source string, wait time.Duration) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	owner := uuid.New()
	if ownerFlag != "" {
		var err error
		if owner, err = uuid.Parse(ownerFlag); err != nil {
			return fmt.Errorf("parsing owner: %w", err)
		}
	}
	wanted, err := parseGrants(grantsFlag)
	if err != nil {
		return err
	}

	defs, err := storage.NewFileStore[*item.Definition](assets)
	if err != nil {
		return fmt.Errorf("reading catalog: %w", err)
	}
	cat := catalog.New()
	if err := cat.Load(defs); err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}
	state.Default.Seal()

	conn, err := messaging.Connect(url, "grantbot-"+owner.String())
	if err != nil {
		return err
	}
	defer conn.Close()

	inbox := messaging.PlayerSubject(owner)
	client := grant.NewClient(owner, cat, state.Default, grant.SenderFunc(func(_ context.Context, data []byte) error {
		return conn.PublishRequest(subject, inbox, data)
	}))

	drv := driver.NewDriver(nil, driver.WithTickLength(time.Second))
	loopCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() { _ = drv.Start(loopCtx) }()

	unsub, err := conn.Subscribe(inbox, func(data []byte, _ string) {
		err := drv.Submit(loopCtx, func(ctx context.Context) {
			if err := client.Handle(ctx, data); err != nil {
				slog.WarnContext(ctx, "handling server message", "error", err)
			}
		})
		if err != nil {
			slog.Warn("queueing server message", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("subscribing to %s: %w", inbox, err)
	}
	defer unsub()

	err = drv.Submit(ctx, func(ctx context.Context) {
		if err := client.RequestSync(ctx); err != nil {
			slog.ErrorContext(ctx, "requesting sync", "error", err)
		}
		for _, g := range wanted {
			op, err := client.Register(ctx, g.definitionID, g.amount, map[string]string{grant.SourceParam: source})
			if err != nil {
				slog.ErrorContext(ctx, "registering grant", "definition_id", g.definitionID, "error", err)
				continue
			}
			slog.InfoContext(ctx, "grant requested", "operation_id", op, "definition_id", g.definitionID, "amount", g.amount)
		}
	})
	if err != nil {
		return err
	}

	deadline := time.After(wait)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-deadline:
			report(ctx, drv, client)
			return fmt.Errorf("timed out waiting for the server")
		case <-ticker.C:
			if report(ctx, drv, client) {
				return nil
			}
		}
	}
}

type wantedGrant struct {
	definitionID int
	amount       int
}

func parseGrants(s string) ([]wantedGrant, error) {
	var out []wantedGrant
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		def, amt, ok := strings.Cut(part, ":")
		if !ok {
			amt = "1"
		}
		id, err := strconv.Atoi(def)
		if err != nil {
			return nil, fmt.Errorf("grant %q: bad definition id: %w", part, err)
		}
		n, err := strconv.Atoi(amt)
		if err != nil {
			return nil, fmt.Errorf("grant %q: bad amount: %w", part, err)
		}
		out = append(out, wantedGrant{definitionID: id, amount: n})
	}
	return out, nil
}

// report logs the inventory once the server's snapshot has arrived and no
// grant is in flight, and reports whether that point was reached.
func report(ctx context.Context, drv *driver.Driver, client *grant.Client) bool {
	done := make(chan bool, 1)
	err := drv.Submit(ctx, func(ctx context.Context) {
		settled := client.Synced() && client.Pending() == 0
		if settled {
			for _, inst := range client.Inventory().Items() {
				slog.InfoContext(ctx, "item",
					"instance_id", inst.ID,
					"name", inst.Def.Name,
					"amount", inst.Amount())
			}
		}
		done <- settled
	})
	if err != nil {
		return false
	}
	select {
	case settled := <-done:
		return settled
	case <-ctx.Done():
		return false
	}
}
