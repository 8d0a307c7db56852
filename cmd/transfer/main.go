package main

import (
	"context"
	"flag"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/farmbot/gofarm/internal/domain"
	"github.com/farmbot/gofarm/internal/services"
	"github.com/farmbot/gofarm/pkg/config"
	"github.com/farmbot/gofarm/pkg/persistence"
	"github.com/farmbot/gofarm/pkg/sdk/api"
)

// One-shot sweeper: logs each account in and moves its spendable balance to
// the destination wallet. Useful for collecting funds outside a bot run.
func main() {
	log.Println("[Transfer] Starting one-shot sweep...")

	if err := godotenv.Load(); err != nil {
		log.Println("[Transfer] No .env file found, using environment variables")
	}

	var (
		configPath = flag.String("config", "config.yaml", "config file path")
		to         = flag.String("to", "", "destination address (defaults to transferTo from config)")
		only       = flag.String("address", "", "sweep a single address instead of the whole accounts file")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("[Transfer] Failed to load config: %v", err)
	}

	dest := strings.TrimSpace(*to)
	if dest == "" {
		dest = cfg.TransferTo
	}
	dest, ok := domain.NormalizeAddress(dest)
	if !ok {
		log.Fatalf("[Transfer] Invalid destination address: %q", *to)
	}

	var addresses []string
	if *only != "" {
		addr, ok := domain.NormalizeAddress(*only)
		if !ok {
			log.Fatalf("[Transfer] Invalid address: %q", *only)
		}
		addresses = []string{addr}
	} else {
		var skipped int
		addresses, skipped, err = config.LoadAccounts(cfg.AccountsFile)
		if err != nil {
			log.Fatalf("[Transfer] Failed to load accounts: %v", err)
		}
		if skipped > 0 {
			log.Printf("[Transfer] Skipped %d invalid lines in %s", skipped, cfg.AccountsFile)
		}
	}
	if len(addresses) == 0 {
		log.Fatal("[Transfer] No accounts to sweep")
	}

	proxies, err := config.LoadProxies(cfg.ProxiesFile)
	if err != nil {
		log.Fatalf("[Transfer] Failed to load proxies: %v", err)
	}

	persist := persistence.NewJSONFileService(cfg.DataDir)
	registry, err := services.NewDeviceRegistry(persist.NewStore("devices"))
	if err != nil {
		log.Fatalf("[Transfer] Failed to load device registry: %v", err)
	}

	apiClient := api.NewClient(cfg.BaseURL, cfg.Origin)
	sessions := services.NewSessionService(apiClient, registry)
	transfers := services.NewTransferService(apiClient)

	ctx := context.Background()
	failed := 0
	for i, addr := range addresses {
		proxy := ""
		if len(proxies) > 0 {
			proxy = proxies[i%len(proxies)]
		}

		acct := &domain.Account{Address: addr}
		if err := sessions.Login(ctx, acct, proxy); err != nil {
			log.Printf("[Transfer] %s: login failed: %v", addr, err)
			failed++
			continue
		}

		sent, err := transfers.Sweep(ctx, acct, dest, proxy)
		switch {
		case err != nil:
			log.Printf("[Transfer] %s: sweep failed: %v", addr, err)
			failed++
		case sent:
			log.Printf("[Transfer] %s: balance swept to %s", addr, dest)
		default:
			log.Printf("[Transfer] %s: balance below threshold, nothing to send", addr)
		}
	}

	log.Printf("[Transfer] Done: %d account(s), %d failed", len(addresses), failed)
	if failed > 0 {
		os.Exit(1)
	}
}
