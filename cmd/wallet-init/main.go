package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/farmbot/gofarm/internal/domain"
	"github.com/farmbot/gofarm/pkg/persistence"
	"github.com/farmbot/gofarm/pkg/secretstore"
	"github.com/farmbot/gofarm/pkg/wallet"
)

func main() {
	var (
		count       = flag.Int("count", 1, "number of wallets to generate")
		start       = flag.Int("start", 0, "first derivation index (mnemonic mode)")
		useMnemonic = flag.Bool("mnemonic", false, "derive from a BIP-39 mnemonic read from stdin")
		dataDir     = flag.String("data-dir", getenv("GOFARM_DATA_DIR", "data"), "data directory for wallet records")
		secretsDir  = flag.String("secrets", "", "badger directory to mirror private keys into (requires GOFARM_MASTER_KEY)")
		accountsOut = flag.String("accounts-out", "", "append generated addresses to this file")
	)
	flag.Parse()

	_ = godotenv.Load()

	if *count <= 0 {
		fatal(fmt.Errorf("count must be positive, got %d", *count))
	}

	var secrets *secretstore.Store
	if *secretsDir != "" {
		key, err := secretstore.ParseKey(os.Getenv("GOFARM_MASTER_KEY"))
		if err != nil {
			fatal(fmt.Errorf("GOFARM_MASTER_KEY: %w", err))
		}
		if key == nil {
			fatal(fmt.Errorf("GOFARM_MASTER_KEY is required when -secrets is set (32 bytes, base64 or hex)"))
		}
		s, err := secretstore.Open(secretstore.OpenOptions{Path: *secretsDir, EncryptionKey: key})
		if err != nil {
			fatal(fmt.Errorf("open secretstore: %w", err))
		}
		secrets = s
		defer secrets.Close()
	}

	store, err := wallet.NewStore(persistence.NewJSONFileService(*dataDir).NewStore("wallets"), secrets)
	if err != nil {
		fatal(err)
	}

	var generate func(i int) (domain.WalletRecord, error)
	if *useMnemonic {
		fmt.Fprintln(os.Stderr, "请输入助记词（12/15/18/21/24 个单词），输入完成后回车：")
		mn := strings.TrimSpace(readLine())
		if mn == "" {
			fatal(fmt.Errorf("mnemonic is empty"))
		}
		g, err := wallet.NewHDGenerator(mn)
		if err != nil {
			fatal(err)
		}
		generate = func(i int) (domain.WalletRecord, error) { return g.Derive(*start + i) }
	} else {
		generate = func(int) (domain.WalletRecord, error) { return wallet.NewRandom() }
	}

	var addresses []string
	for i := 0; i < *count; i++ {
		rec, err := generate(i)
		if err != nil {
			fatal(err)
		}
		if err := store.Add(rec); err != nil {
			fatal(err)
		}
		addresses = append(addresses, rec.Address)
		fmt.Fprintf(os.Stderr, "已生成：%s（handle=%s）\n", rec.Address, rec.SocialHandle)
	}

	if *accountsOut != "" {
		if err := appendLines(*accountsOut, addresses); err != nil {
			fatal(err)
		}
		fmt.Fprintf(os.Stderr, "已追加 %d 个地址到 %s\n", len(addresses), *accountsOut)
	}
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func readLine() string {
	br := bufio.NewReader(os.Stdin)
	s, _ := br.ReadString('\n')
	return strings.TrimSpace(s)
}

func appendLines(path string, lines []string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	for _, l := range lines {
		if _, err := fmt.Fprintln(f, l); err != nil {
			return err
		}
	}
	return nil
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "error:", err.Error())
	os.Exit(1)
}
