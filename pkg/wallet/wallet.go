package wallet

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	hdwallet "github.com/miguelmota/go-ethereum-hdwallet"

	"github.com/farmbot/gofarm/internal/domain"
	"github.com/farmbot/gofarm/pkg/persistence"
	"github.com/farmbot/gofarm/pkg/secretstore"
)

// NewRandom generates a fresh secp256k1 wallet with a random social handle.
func NewRandom() (domain.WalletRecord, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return domain.WalletRecord{}, fmt.Errorf("generate key: %w", err)
	}
	return domain.WalletRecord{
		Address:      crypto.PubkeyToAddress(key.PublicKey).Hex(),
		PrivateKey:   hex.EncodeToString(crypto.FromECDSA(key)),
		SocialHandle: NewSocialHandle(),
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// HDGenerator derives wallets from a BIP-39 mnemonic at the standard
// ethereum path m/44'/60'/0'/0/{index}, so a batch can be recreated from
// the mnemonic alone.
type HDGenerator struct {
	wallet *hdwallet.Wallet
}

// NewHDGenerator creates a generator from a mnemonic.
func NewHDGenerator(mnemonic string) (*HDGenerator, error) {
	w, err := hdwallet.NewFromMnemonic(mnemonic)
	if err != nil {
		return nil, fmt.Errorf("parse mnemonic: %w", err)
	}
	return &HDGenerator{wallet: w}, nil
}

// Derive returns the wallet at the given account index.
func (g *HDGenerator) Derive(index int) (domain.WalletRecord, error) {
	path := hdwallet.MustParseDerivationPath(fmt.Sprintf("m/44'/60'/0'/0/%d", index))
	account, err := g.wallet.Derive(path, false)
	if err != nil {
		return domain.WalletRecord{}, fmt.Errorf("derive %s: %w", path, err)
	}
	pk, err := g.wallet.PrivateKeyHex(account)
	if err != nil {
		return domain.WalletRecord{}, fmt.Errorf("private key for %s: %w", account.Address.Hex(), err)
	}
	return domain.WalletRecord{
		Address:      account.Address.Hex(),
		PrivateKey:   pk,
		SocialHandle: NewSocialHandle(),
		CreatedAt:    time.Now().UTC(),
	}, nil
}

const handleAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// NewSocialHandle generates a plausible-looking handle for registration.
func NewSocialHandle() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	out := make([]byte, len(buf))
	for i, b := range buf {
		out[i] = handleAlphabet[int(b)%len(handleAlphabet)]
	}
	return "farmer_" + string(out)
}

// Store keeps wallet records keyed by lower-cased address, flushed to the
// JSON document on every mutation. When a secretstore is attached, private
// keys are mirrored into it (encrypted at rest).
type Store struct {
	store   persistence.Store
	secrets *secretstore.Store

	mu      sync.Mutex
	records map[string]domain.WalletRecord
}

// NewStore loads wallet records from the persistence store. secrets may be nil.
func NewStore(store persistence.Store, secrets *secretstore.Store) (*Store, error) {
	records := map[string]domain.WalletRecord{}
	if err := store.Load(&records); err != nil && err != persistence.ErrNotExists {
		return nil, err
	}
	return &Store{
		store:   store,
		secrets: secrets,
		records: records,
	}, nil
}

// Add persists a record immediately.
func (s *Store) Add(rec domain.WalletRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[strings.ToLower(rec.Address)] = rec
	if err := s.store.Save(s.records); err != nil {
		return err
	}
	if s.secrets != nil {
		if err := s.secrets.PutKey(rec.Address, rec.PrivateKey); err != nil {
			return fmt.Errorf("mirror key to secretstore: %w", err)
		}
	}
	return nil
}

// Get returns the record for an address.
func (s *Store) Get(address string) (domain.WalletRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[strings.ToLower(address)]
	return rec, ok
}

// HandleFor returns the social handle recorded for an address, if any.
// The runner uses this to register pending accounts.
func (s *Store) HandleFor(address string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.records[strings.ToLower(address)]; ok {
		return rec.SocialHandle
	}
	return ""
}

// Addresses lists all stored addresses.
func (s *Store) Addresses() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec.Address)
	}
	return out
}

// Size returns the number of records.
func (s *Store) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
