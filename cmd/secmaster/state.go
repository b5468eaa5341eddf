package main

import (
	"context"
	"errors"
	"os"

	"github.com/rs/zerolog"

	"github.com/hedgineer/secmaster/internal/factmodel"
	"github.com/hedgineer/secmaster/internal/io/columnar"
	"github.com/hedgineer/secmaster/internal/io/sqlstore"
)

const sqlTableName = "security_master"

// loadState reads the previously persisted master bundle, or nil if
// nothing has been persisted yet — the CLI's first --merge treats a nil
// bundle as "build from scratch" rather than an error.
func loadState(ctx context.Context, path string, useSQL bool, logger zerolog.Logger) (*factmodel.Bundle, error) {
	if useSQL {
		store, err := sqlstore.Open(path)
		if err != nil {
			return nil, err
		}
		defer store.Close()

		exists, err := store.TableExists(ctx, sqlTableName)
		if err != nil {
			return nil, err
		}
		if !exists {
			logger.Debug().Str("path", path).Msg("no sql state found, starting fresh")
			return nil, nil
		}

		header, err := store.TableHeader(ctx, sqlTableName)
		if err != nil {
			return nil, err
		}
		return store.ReadTable(ctx, sqlTableName, header)
	}

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		logger.Debug().Str("path", path).Msg("no parquet state found, starting fresh")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.Size() == 0 {
		return nil, nil
	}

	return columnar.ReadParquet(f, info.Size())
}

// saveState persists sm, overwriting whatever was previously at path.
func saveState(ctx context.Context, path string, useSQL bool, sm *factmodel.Bundle) error {
	if useSQL {
		store, err := sqlstore.Open(path)
		if err != nil {
			return err
		}
		defer store.Close()
		return store.WriteTable(ctx, sqlTableName, sm)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return columnar.WriteParquet(f, sm)
}
