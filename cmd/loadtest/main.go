// Команда loadtest нагружает OrderPricingService сценариями черновиков
// и печатает сводку задержек по методам.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	pricingv1 "github.com/vladislavdragonenkov/order-pricing/api/pricing/v1"
	"github.com/vladislavdragonenkov/order-pricing/internal/domain"
)

type loadMode string

const (
	modeDraft    loadMode = "draft"
	modeDiscount loadMode = "draft-discount"
	modeComplete loadMode = "draft-complete"
)

type config struct {
	addr            string
	total           int
	totalSet        bool
	duration        time.Duration
	concurrency     int
	connections     int
	timeout         time.Duration
	mode            loadMode
	channel         string
	currency        string
	variants        []string
	quantity        int
	seedPrice       string
	discountPercent string
	fetchFanout     int
	outputPath      string
}

var errFailedScenarios = errors.New("load test finished with failed scenarios")

func parseConfig(fs *flag.FlagSet, args []string) (config, error) {
	var (
		cfg          config
		modeValue    string
		variantsList string
	)

	fs.StringVar(&cfg.addr, "addr", "localhost:50051", "gRPC target address")
	fs.IntVar(&cfg.total, "total", 400, "total scenarios to execute in count mode; in duration mode only used when explicitly set")
	fs.DurationVar(&cfg.duration, "duration", 0, "optional time-based run duration (e.g. 10m)")
	fs.IntVar(&cfg.concurrency, "concurrency", 40, "number of concurrent workers")
	fs.IntVar(&cfg.connections, "connections", 20, "number of gRPC client connections")
	fs.DurationVar(&cfg.timeout, "timeout", 5*time.Second, "per-RPC timeout")
	fs.StringVar(&modeValue, "mode", string(modeDraft), "load mode: draft | draft-discount | draft-complete")
	fs.StringVar(&cfg.channel, "channel", "channel-load", "sales channel id")
	fs.StringVar(&cfg.currency, "currency", "USD", "order currency")
	fs.StringVar(&variantsList, "variants", "variant-load-1,variant-load-2", "comma-separated variant ids added to every draft")
	fs.IntVar(&cfg.quantity, "quantity", 1, "quantity of every order line")
	fs.StringVar(&cfg.seedPrice, "seed-price", "", "upsert listings for all variants with this price before the run")
	fs.StringVar(&cfg.discountPercent, "discount-percent", "10", "manual order discount for draft-discount and draft-complete modes")
	fs.IntVar(&cfg.fetchFanout, "fetch-fanout", 4, "concurrent FetchOrderPrices calls per order")
	fs.StringVar(&cfg.outputPath, "output", "", "optional JSON report output file path")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "total" {
			cfg.totalSet = true
		}
	})

	mode, err := parseMode(modeValue)
	if err != nil {
		return cfg, err
	}
	cfg.mode = mode

	for _, variant := range strings.Split(variantsList, ",") {
		if variant = strings.TrimSpace(variant); variant != "" {
			cfg.variants = append(cfg.variants, variant)
		}
	}

	switch {
	case cfg.duration < 0:
		return cfg, errors.New("duration must be >= 0")
	case cfg.duration == 0 && cfg.total <= 0:
		return cfg, errors.New("total must be > 0 when duration is not set")
	case cfg.duration > 0 && cfg.totalSet && cfg.total <= 0:
		return cfg, errors.New("total must be > 0 when explicitly set with duration")
	case cfg.concurrency <= 0:
		return cfg, errors.New("concurrency must be > 0")
	case cfg.connections <= 0:
		return cfg, errors.New("connections must be > 0")
	case cfg.timeout <= 0:
		return cfg, errors.New("timeout must be > 0")
	case strings.TrimSpace(cfg.channel) == "":
		return cfg, errors.New("channel is required")
	case strings.TrimSpace(cfg.currency) == "":
		return cfg, errors.New("currency is required")
	case len(cfg.variants) == 0:
		return cfg, errors.New("at least one variant is required")
	case cfg.quantity <= 0:
		return cfg, errors.New("quantity must be > 0")
	case cfg.fetchFanout <= 0:
		return cfg, errors.New("fetch-fanout must be > 0")
	}

	if cfg.seedPrice != "" {
		if _, err := domain.NewMoney(cfg.seedPrice, cfg.currency); err != nil {
			return cfg, fmt.Errorf("invalid seed-price: %w", err)
		}
	}
	if cfg.mode != modeDraft {
		percent, err := decimal.NewFromString(strings.TrimSpace(cfg.discountPercent))
		if err != nil || !percent.IsPositive() || percent.GreaterThan(decimal.NewFromInt(100)) {
			return cfg, fmt.Errorf("discount-percent must be in (0, 100], got %q", cfg.discountPercent)
		}
	}
	return cfg, nil
}

func parseMode(value string) (loadMode, error) {
	switch mode := loadMode(strings.TrimSpace(value)); mode {
	case modeDraft, modeDiscount, modeComplete:
		return mode, nil
	default:
		return "", fmt.Errorf("unsupported mode: %s", value)
	}
}

func main() {
	cfg, err := parseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg, os.Stdout); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func run(cfg config, out io.Writer) error {
	conns := make([]*grpc.ClientConn, 0, cfg.connections)
	defer func() {
		for _, conn := range conns {
			_ = conn.Close()
		}
	}()

	clients := make([]pricingv1.OrderPricingServiceClient, 0, cfg.connections)
	for range cfg.connections {
		conn, err := grpc.NewClient(cfg.addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			return fmt.Errorf("create grpc client connection: %w", err)
		}
		conns = append(conns, conn)
		clients = append(clients, pricingv1.NewOrderPricingServiceClient(conn))
	}

	startedAt := time.Now()
	runID := fmt.Sprintf("%d-%d", startedAt.UnixNano(), os.Getpid())

	if cfg.seedPrice != "" {
		if err := seedListings(clients[0], cfg, runID); err != nil {
			return err
		}
	}

	col := newCollector()
	jobs := make(chan int, cfg.concurrency*2)

	var wg sync.WaitGroup
	for workerID := range cfg.concurrency {
		runner := &scenarioRunner{client: clients[workerID%len(clients)], cfg: cfg, runID: runID, col: col}
		wg.Add(1)
		go func() {
			defer wg.Done()
			for index := range jobs {
				_ = runner.run(index)
			}
		}()
	}

	dispatchJobs(jobs, cfg)
	wg.Wait()

	result := col.buildReport(startedAt, time.Since(startedAt))
	printReport(out, result, cfg)
	if cfg.outputPath != "" {
		if err := writeJSONReport(cfg.outputPath, result); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}
	if result.FailedScenarios > 0 {
		return errFailedScenarios
	}
	return nil
}

// seedListings заводит цены вариантов в канале нагрузочного теста.
func seedListings(client pricingv1.OrderPricingServiceClient, cfg config, runID string) error {
	for _, variantID := range cfg.variants {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.timeout)
		ctx = metadata.AppendToOutgoingContext(ctx, idempotencyHeader, fmt.Sprintf("lt-seed-%s-%s", runID, variantID))
		_, err := client.UpsertVariantListing(ctx, &pricingv1.UpsertVariantListingRequest{
			Listing: pricingv1.VariantListing{
				VariantID: variantID,
				ChannelID: cfg.channel,
				Price:     pricingv1.Money{Amount: cfg.seedPrice, Currency: cfg.currency},
			},
		})
		cancel()
		if err != nil {
			return fmt.Errorf("seed listing %s: %w", variantID, err)
		}
	}
	return nil
}

func dispatchJobs(jobs chan<- int, cfg config) {
	defer close(jobs)

	if cfg.duration <= 0 {
		for i := range cfg.total {
			jobs <- i
		}
		return
	}

	timer := time.NewTimer(cfg.duration)
	defer timer.Stop()

	for i := 0; !cfg.totalSet || i < cfg.total; i++ {
		select {
		case <-timer.C:
			return
		case jobs <- i:
		}
	}
}
