// Command pending_load opens many subscribers on the pending stream of a
// running bondi web server and fires concurrent submissions at one bond,
// then reports how the submissions were collapsed.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
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
	"golang.org/x/sync/errgroup"
)

type submitResponse struct {
	Outcome string `json:"outcome"`
	Error   string `json:"error,omitempty"`
}

func main() {
	var (
		baseURL     string
		asset       string
		subscribers int
		submits     int
		testDur     time.Duration
	)

	flag.StringVar(&baseURL, "url", "http://localhost:8000", "bondi web server")
	flag.StringVar(&asset, "asset", "dai", "bond to submit against")
	flag.IntVar(&subscribers, "subs", 200, "pending stream subscribers")
	flag.IntVar(&submits, "submits", 20, "concurrent submissions")
	flag.DurationVar(&testDur, "dur", 10*time.Second, "how long subscribers stay connected")
	flag.Parse()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	if subscribers < 0 || submits < 0 {
		logger.Fatal("counts must not be negative", zap.Int("subs", subscribers), zap.Int("submits", submits))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, testDur)
	defer cancel()

	client := &http.Client{
		Transport: &http.Transport{
			MaxConnsPerHost:     subscribers + submits + 10,
			MaxIdleConnsPerHost: subscribers + submits + 10,
			DisableCompression:  true,
			DialContext:         (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		},
	}

	var (
		connected  atomic.Int64
		streamErrs atomic.Int64
		changes    atomic.Int64
	)

	subs, subCtx := errgroup.WithContext(ctx)
	for i := 0; i < subscribers; i++ {
		subs.Go(func() error {
			req, err := http.NewRequestWithContext(subCtx, http.MethodGet, baseURL+"/pending/stream", nil)
			if err != nil {
				return err
			}
			req.Header.Set("Accept", "text/event-stream")

			resp, err := client.Do(req)
			if err != nil {
				streamErrs.Add(1)
				return nil
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				streamErrs.Add(1)
				return nil
			}

			connected.Add(1)
			sc := bufio.NewScanner(resp.Body)
			for sc.Scan() {
				if strings.HasPrefix(sc.Text(), "data: ") {
					changes.Add(1)
				}
			}
			return nil
		})
	}

	// let the subscribers attach before submitting
	time.Sleep(time.Second)

	outcomes := make(map[string]int)
	var mu sync.Mutex
	var fire errgroup.Group
	start := time.Now()
	for i := 0; i < submits; i++ {
		fire.Go(func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/bonds/"+asset+"/submit", nil)
			if err != nil {
				return err
			}
			resp, err := client.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			var body submitResponse
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				return err
			}
			mu.Lock()
			outcomes[body.Outcome]++
			mu.Unlock()
			return nil
		})
	}
	if err := fire.Wait(); err != nil {
		logger.Error("submission failed", zap.Error(err))
	}
	logger.Info("submissions done", zap.Any("outcomes", outcomes), zap.Duration("elapsed", time.Since(start)))

	<-ctx.Done()
	_ = subs.Wait()

	fmt.Fprintf(os.Stdout, "done: connected=%d stream_errs=%d changes=%d outcomes=%v\n",
		connected.Load(), streamErrs.Load(), changes.Load(), outcomes)
}
