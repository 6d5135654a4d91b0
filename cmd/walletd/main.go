// Shielded Wallet Daemon - wires the wallet core's collaborators together
// and exposes a minimal CLI surface, mirroring the teacher's ccoind entry
// point: a plain flag+fmt daemon with no RPC/network layer of its own.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ccoin/shieldwallet/internal/address"
	"github.com/ccoin/shieldwallet/internal/chain"
	"github.com/ccoin/shieldwallet/internal/keystore"
	"github.com/ccoin/shieldwallet/internal/params"
	"github.com/ccoin/shieldwallet/internal/sapling"
	"github.com/ccoin/shieldwallet/internal/storage"
	"github.com/ccoin/shieldwallet/internal/wallet"
	"github.com/ccoin/shieldwallet/pkg/common"
	"github.com/ccoin/shieldwallet/pkg/types"
)

const (
	version = "0.1.0"
	banner  = `
  ____  _     _      _     _ __        __    _ _      _
 / ___|| |__ (_) ___| | __| |\ \      / /_ _| | | ___| |_
 \___ \| '_ \| |/ _ \|/ _' | \ \ /\ / / _' | | |/ _ \ __|
  ___) | | | | |  __/| (_| |  \ V  V / (_| | | |  __/ |_
 |____/|_| |_|_|\___|_|\__,_|   \_/\_/ \__,_|_|_|\___|\__|

  shielded-wallet daemon v%s
`
)

// Config holds the daemon's runtime configuration, mirroring the teacher's
// ccoind Config struct and flag layout.
type Config struct {
	Network string

	SeedHex string
	Account uint

	DBHost      string
	DBPort      int
	DBUser      string
	DBPassword  string
	DBName      string
	UsePostgres bool

	RunSync bool
}

func main() {
	cfg := parseFlags()
	fmt.Printf(banner, version)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nShutting down...")
		cancel()
	}()

	if err := run(ctx, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags() *Config {
	cfg := &Config{}

	flag.StringVar(&cfg.Network, "network", "test", "network to use (main, test)")
	flag.StringVar(&cfg.SeedHex, "seed", "", "hex-encoded wallet seed (random if empty)")
	flag.UintVar(&cfg.Account, "account", 0, "account index to derive and display")

	flag.StringVar(&cfg.DBHost, "db-host", "localhost", "PostgreSQL host")
	flag.IntVar(&cfg.DBPort, "db-port", 5432, "PostgreSQL port")
	flag.StringVar(&cfg.DBUser, "db-user", "shieldwallet", "PostgreSQL user")
	flag.StringVar(&cfg.DBPassword, "db-password", "", "PostgreSQL password")
	flag.StringVar(&cfg.DBName, "db-name", "shieldwallet", "PostgreSQL database name")
	flag.BoolVar(&cfg.UsePostgres, "persist", false, "persist chain state to PostgreSQL")

	flag.BoolVar(&cfg.RunSync, "sync", false, "run one synchronization pass against an empty mock source and exit")

	flag.Parse()
	return cfg
}

func run(ctx context.Context, cfg *Config) error {
	coinType, upgrades, hrp := networkParams(cfg.Network)

	seed, err := loadSeed(cfg.SeedHex)
	if err != nil {
		return fmt.Errorf("failed to load seed: %w", err)
	}
	if cfg.SeedHex == "" {
		fmt.Printf("Generated seed:  %s\n", common.BytesToHex(seed))
	}

	ks, err := keystore.NewLocalKeyStore(seed)
	if err != nil {
		return fmt.Errorf("failed to initialize keystore: %w", err)
	}

	xfvk, err := ks.Xfvk(coinType, types.AccountId(cfg.Account))
	if err != nil {
		return fmt.Errorf("failed to derive account %d: %w", cfg.Account, err)
	}
	account := wallet.NewAccount(fmt.Sprintf("account-%d", cfg.Account), xfvk)

	addr := account.DefaultAddress()
	encoded, err := address.Encode(hrp, address.PaymentAddress{
		Diversifier: addr.Diversifier,
		Pkd:         addr.Pkd.Encode32(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode default address: %w", err)
	}

	fmt.Printf("Network:        %s (coin_type=%d)\n", cfg.Network, coinType)
	fmt.Printf("Account %d address: %s\n", cfg.Account, encoded)

	w := wallet.NewWallet(coinType, walletKeyStoreAdapter{ks: ks, coinType: coinType}, chainStateAdapter{upgrades})
	w.AddAccount(types.AccountId(cfg.Account), account)

	spendable, pending := w.TotalBalances()
	fmt.Printf("Balances:       spendable=%d pending=%d\n", spendable, pending)

	var persister chain.Persister
	if cfg.UsePostgres {
		store, err := storage.NewStore(ctx, &storage.Config{
			Host: cfg.DBHost, Port: cfg.DBPort, User: cfg.DBUser,
			Password: cfg.DBPassword, Database: cfg.DBName, SSLMode: "disable", MaxConns: 10,
		})
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer store.Close()
		persister = store
		fmt.Println("Chain state persistence: connected")
	}

	if cfg.RunSync {
		cm := chain.NewChainManager(chain.NewMockSource(nil), upgrades)
		if persister != nil {
			cm.SetPersister(persister)
			if err := cm.Resume(ctx); err != nil {
				return fmt.Errorf("failed to resume persisted chain state: %w", err)
			}
		}
		cm.SetViewingKeys([]sapling.Scalar{account.IVK()})
		if err := cm.Sync(); err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}
		fmt.Printf("Sync complete. Height: %d, branch: 0x%x\n", cm.Height(), cm.ConsensusBranchID())
		return nil
	}

	fmt.Println("Daemon initialized. Press Ctrl+C to stop.")
	<-ctx.Done()
	fmt.Println("Stopped.")
	return nil
}

func networkParams(network string) (coinType uint32, upgrades []params.Upgrade, hrp string) {
	if network == "main" {
		return params.CoinTypeMain, params.UpgradesMain, params.HRPSaplingMain
	}
	return params.CoinTypeTest, params.UpgradesTest, params.HRPSaplingTest
}

func loadSeed(seedHex string) ([]byte, error) {
	if seedHex == "" {
		return common.RandomBytes(32)
	}
	return common.HexToBytes(seedHex)
}

// walletKeyStoreAdapter narrows keystore.LocalKeyStore (which derives keys
// per coin_type and account) to wallet.KeyStore's account-only surface,
// binding this wallet's fixed coin_type once at construction, keeping the
// wallet package free of a direct dependency on the keystore package
// (mirroring the collaborator-interface split spec.md §9 calls for).
type walletKeyStoreAdapter struct {
	ks       *keystore.LocalKeyStore
	coinType uint32
}

func (a walletKeyStoreAdapter) ProvingKey(account types.AccountId) ([]byte, bool) {
	pgk, err := a.ks.ProvingKey(a.coinType, account)
	if err != nil {
		return nil, false
	}
	return pgk.Nsk.Bytes(), true
}

func (a walletKeyStoreAdapter) Xfvk(account types.AccountId) (wallet.ExtendedFullViewingKey, bool) {
	xfvk, err := a.ks.Xfvk(a.coinType, account)
	if err != nil {
		return wallet.ExtendedFullViewingKey{}, false
	}
	return xfvk, true
}

type chainStateAdapter struct {
	upgrades []params.Upgrade
}

func (a chainStateAdapter) ConsensusBranchID(height uint32) uint32 {
	return params.ConsensusBranchID(a.upgrades, height)
}
