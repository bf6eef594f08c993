// tickbot connects a number of wandering, attacking bots to an arena.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/tickarena/server/internal/client"
	"github.com/tickarena/server/internal/net/packet"
	"go.uber.org/zap"
)

func main() {
	url := flag.String("url", "ws://127.0.0.1:3000/ws", "arena websocket url")
	bots := flag.Int("bots", 8, "number of bots")
	duration := flag.Duration("duration", 0, "stop after this long (0 runs until interrupted)")
	every := flag.Duration("every", 500*time.Millisecond, "interval between intents")
	spread := flag.Float64("spread", 50, "move targets are drawn from [-spread, spread]")
	flag.Parse()

	log, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if *duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	var wg sync.WaitGroup
	for i := 0; i < *bots; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			b := &bot{
				url:    *url,
				every:  *every,
				spread: *spread,
				rng:    rand.New(rand.NewSource(time.Now().UnixNano() + int64(n))),
				log:    log.With(zap.Int("bot", n)),
			}
			if err := b.run(ctx); err != nil {
				b.log.Warn("bot stopped", zap.Error(err))
			}
		}(i)
	}
	wg.Wait()
}

type bot struct {
	url    string
	every  time.Duration
	spread float64
	rng    *rand.Rand
	log    *zap.Logger

	mu     sync.Mutex
	others []uint32
}

func (b *bot) run(ctx context.Context) error {
	c, err := client.Dial(ctx, b.url, 100*time.Millisecond, b.log)
	if err != nil {
		return err
	}
	defer c.Close()

	w, err := c.Join()
	if err != nil {
		return err
	}
	b.log.Info("joined", zap.Uint32("id", w.ID), zap.Int("players", len(w.PlayerList)+1))

	readErr := make(chan error, 1)
	go func() { readErr <- b.read(c) }()

	ticker := time.NewTicker(b.every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-readErr:
			return err
		case <-ticker.C:
			if err := b.act(c); err != nil {
				return err
			}
		}
	}
}

// read tracks who else is in the arena from snapshots.
func (b *bot) read(c *client.Client) error {
	for {
		msg, err := c.Next()
		if err != nil {
			return err
		}
		switch m := msg.(type) {
		case packet.Snapshot:
			ids := make([]uint32, 0, len(m.Players))
			for _, p := range m.Players {
				if p.ID != c.ID {
					ids = append(ids, p.ID)
				}
			}
			b.mu.Lock()
			b.others = ids
			b.mu.Unlock()
		case packet.Notice:
			if m.Type == packet.SDeath && m.PlayerID == c.ID {
				b.log.Info("died")
			}
		}
	}
}

func (b *bot) act(c *client.Client) error {
	x := float32((b.rng.Float64()*2 - 1) * b.spread)
	y := float32((b.rng.Float64()*2 - 1) * b.spread)
	if err := c.SendMove(x, y); err != nil {
		return err
	}

	b.mu.Lock()
	var target uint32
	if len(b.others) > 0 {
		target = b.others[b.rng.Intn(len(b.others))]
	}
	b.mu.Unlock()
	if target == 0 {
		return nil
	}
	return c.SendAttack(target, uint8(b.rng.Intn(3)))
}
