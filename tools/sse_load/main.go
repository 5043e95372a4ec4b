// Command sse_load opens many concurrent subscriptions to the ledger's
// /stream endpoint and reports how many notifications each kind delivered.
package main

import (
	"bufio"
	"context"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"go.uber.org/zap"
)

type counters struct {
	connected   atomic.Int64
	connectErrs atomic.Int64
	streamErrs  atomic.Int64

	mu     sync.Mutex
	byKind map[string]int64
}

func (c *counters) event(kind string) {
	c.mu.Lock()
	c.byKind[kind]++
	c.mu.Unlock()
}

func (c *counters) fields() []zap.Field {
	c.mu.Lock()
	defer c.mu.Unlock()

	fields := []zap.Field{
		zap.Int64("connected", c.connected.Load()),
		zap.Int64("connect_errs", c.connectErrs.Load()),
		zap.Int64("stream_errs", c.streamErrs.Load()),
	}
	for kind, n := range c.byKind {
		fields = append(fields, zap.Int64(kind, n))
	}
	return fields
}

func main() {
	var (
		targetURL    string
		connections  int
		testDuration time.Duration
		rampUp       time.Duration
	)

	flag.StringVar(&targetURL, "url", "http://localhost:8080/stream", "ledger SSE endpoint")
	flag.IntVar(&connections, "conns", 100, "number of concurrent subscriptions")
	flag.DurationVar(&testDuration, "dur", 60*time.Second, "test duration (0 for until interrupted)")
	flag.DurationVar(&rampUp, "ramp", time.Second, "spread connection starts across this window")
	flag.Parse()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	if connections <= 0 {
		logger.Fatal("invalid conns", zap.Int("conns", connections))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if testDuration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, testDuration)
		defer cancel()
	}

	client := &http.Client{
		Transport: &http.Transport{
			MaxConnsPerHost:     connections + 10,
			MaxIdleConnsPerHost: connections + 10,
			DisableCompression:  true,
			DialContext: (&net.Dialer{
				Timeout:   5 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
		},
	}

	logger.Info("starting",
		zap.String("url", targetURL),
		zap.Int("conns", connections),
		zap.Duration("dur", testDuration),
		zap.Duration("ramp", rampUp))

	stats := &counters{byKind: make(map[string]int64)}
	interval := rampUp / time.Duration(connections)
	start := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < connections && ctx.Err() == nil; i++ {
		if i > 0 && interval > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(interval):
			}
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			subscribe(ctx, client, targetURL, stats)
		}()
	}

	go func() {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				logger.Info("status", stats.fields()...)
			}
		}
	}()

	wg.Wait()
	logger.Info("done", append(stats.fields(), zap.Duration("elapsed", time.Since(start).Truncate(time.Millisecond)))...)
}

func subscribe(ctx context.Context, client *http.Client, url string, stats *counters) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		stats.connectErrs.Add(1)
		return
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := client.Do(req)
	if err != nil {
		stats.connectErrs.Add(1)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		stats.connectErrs.Add(1)
		return
	}
	stats.connected.Add(1)

	reader := bufio.NewReader(resp.Body)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if ctx.Err() == nil {
				stats.streamErrs.Add(1)
			}
			return
		}
		// heartbeats are ":" comments, data lines follow their event line
		if kind, ok := strings.CutPrefix(line, "event: "); ok {
			stats.event(strings.TrimSpace(kind))
		}
	}
}
