package host

import (
	"fmt"
	"log/slog"

	"github.com/bitfsorg/vesting-go/config"
	"github.com/bitfsorg/vesting-go/custody"
	"github.com/bitfsorg/vesting-go/schedule"
	"github.com/bitfsorg/vesting-go/store"
)

// Open builds a program from cfg: a bbolt store under the data directory,
// the custody deriver for the configured namespace and tag, and either the
// given transfer service or, when nil, a JSON-RPC client for cfg.TransferURL.
func Open(cfg config.Config, transfers schedule.TransferService, logger *slog.Logger) (*Program, error) {
	if err := config.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	namespace, err := cfg.NamespaceID()
	if err != nil {
		return nil, err
	}

	if transfers == nil {
		if cfg.TransferURL == "" {
			return nil, ErrNoTransferService
		}
		transfers = custody.NewRPCTransferer(custody.RPCConfig{
			URL:      cfg.TransferURL,
			User:     cfg.TransferUser,
			Password: cfg.TransferPassword,
		})
	}

	st, err := store.OpenBoltStore(cfg.DBPath())
	if err != nil {
		return nil, fmt.Errorf("host: open store: %w", err)
	}

	p := New(st, transfers, custody.NewDeriver(), namespace)
	p.Tag = cfg.CustodyTag
	if logger != nil {
		p.Logger = logger
	}
	p.Logger.Debug("program opened", "db", cfg.DBPath(), "namespace", cfg.Namespace, "tag", cfg.CustodyTag)
	return p, nil
}
