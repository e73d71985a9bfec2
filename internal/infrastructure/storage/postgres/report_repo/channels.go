package report_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"salesreports/internal/core/apperror"
	"salesreports/internal/domain/reports"
	"salesreports/internal/infrastructure/storage/postgres"
)

var _ reports.ChannelRepository = (*ChannelRepo)(nil)

// ChannelRepo resolves channels and their default locale.
type ChannelRepo struct {
	db      postgres.QuerierProvider
	builder squirrel.StatementBuilderType
}

// NewChannelRepo creates a new channel repository.
func NewChannelRepo(db postgres.QuerierProvider) *ChannelRepo {
	return &ChannelRepo{
		db:      db,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// GetByCode returns the channel with the given code.
func (r *ChannelRepo) GetByCode(ctx context.Context, code string) (reports.Channel, error) {
	sql, args, err := r.byCodeQuery(code).ToSql()
	if err != nil {
		return reports.Channel{}, fmt.Errorf("build channel query: %w", err)
	}

	var ch reports.Channel
	if err := pgxscan.Get(ctx, r.db.GetQuerier(ctx), &ch, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return reports.Channel{}, apperror.NewNotFound("channel", code)
		}
		return reports.Channel{}, fmt.Errorf("get channel %s: %w", code, err)
	}
	return ch, nil
}

func (r *ChannelRepo) byCodeQuery(code string) squirrel.SelectBuilder {
	return r.builder.
		Select("c.id", "c.code", "COALESCE(l.code, '') AS default_locale_code").
		From("sylius_channel c").
		LeftJoin("sylius_locale l ON l.id = c.default_locale_id").
		Where(squirrel.Eq{"c.code": code})
}
