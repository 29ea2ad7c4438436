/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/Seednode/tete/cards"
	"github.com/Seednode/tete/round"
	"github.com/Seednode/tete/store/migrations"
)

// queryTimeout bounds the synchronous score lookups.
const queryTimeout = 2 * time.Second

// Postgres keeps packs and best scores in PostgreSQL. Settings stay
// local, see File.
type Postgres struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

// OpenPostgres migrates the schema at url and connects a pool to it.
func OpenPostgres(ctx context.Context, url string, log zerolog.Logger) (*Postgres, error) {
	if err := migrations.Up(ctx, url); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnexpected, err)
	}

	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnexpected, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: %w", ErrUnexpected, err)
	}

	return &Postgres{pool: pool, log: log}, nil
}

func (p *Postgres) Close() {
	p.pool.Close()
}

func wrap(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return ErrNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return fmt.Errorf("%w: %w", ErrUnexpected, err)
	}
}

func (p *Postgres) List(ctx context.Context) ([]cards.Pack, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, name, description, icon, cards FROM custom_packs ORDER BY name, id`)
	if err != nil {
		return nil, wrap(err)
	}
	defer rows.Close()

	var packs []cards.Pack
	for rows.Next() {
		pack := cards.Pack{Custom: true}
		if err := rows.Scan(&pack.ID, &pack.Name, &pack.Description, &pack.Icon, &pack.Cards); err != nil {
			return nil, wrap(err)
		}
		packs = append(packs, pack)
	}

	return packs, wrap(rows.Err())
}

func (p *Postgres) Save(ctx context.Context, pack cards.Pack) error {
	if pack.Cards == nil {
		pack.Cards = []cards.Card{}
	}

	_, err := p.pool.Exec(ctx, `
		INSERT INTO custom_packs (id, name, description, icon, cards)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			icon = EXCLUDED.icon,
			cards = EXCLUDED.cards,
			updated_at = now()`,
		pack.ID, pack.Name, pack.Description, pack.Icon, pack.Cards)

	return wrap(err)
}

func (p *Postgres) Delete(ctx context.Context, id string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM custom_packs WHERE id = $1`, id)
	if err != nil {
		return wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (p *Postgres) Best(packID string, mode round.Mode) (int, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	var score int
	err := p.pool.QueryRow(ctx,
		`SELECT score FROM best_scores WHERE pack_id = $1 AND mode = $2`,
		packID, string(mode)).Scan(&score)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			p.log.Warn().Err(err).Str("pack", packID).Msg("reading best score")
		}
		return 0, false
	}

	return score, true
}

// SaveBest relies on the conditional upsert: a row comes back only when
// the stored score was beaten or absent.
func (p *Postgres) SaveBest(packID string, mode round.Mode, score int) bool {
	if score <= 0 {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	var stored int
	err := p.pool.QueryRow(ctx, `
		INSERT INTO best_scores (pack_id, mode, score)
		VALUES ($1, $2, $3)
		ON CONFLICT (pack_id, mode) DO UPDATE SET
			score = EXCLUDED.score,
			updated_at = now()
		WHERE best_scores.score < EXCLUDED.score
		RETURNING score`,
		packID, string(mode), score).Scan(&stored)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			p.log.Warn().Err(err).Str("pack", packID).Msg("saving best score")
		}
		return false
	}

	return true
}
