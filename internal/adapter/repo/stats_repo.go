package repo

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// StatsRepositoryPG implements domain.StatsRepository with one row per day
// and counter name.
type StatsRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewStatsRepository constructs the repository.
func NewStatsRepository(pool *pgxpool.Pool) *StatsRepositoryPG {
	return &StatsRepositoryPG{pool: pool}
}

// IncrementCounters upserts the given counters for the provided day.
func (r *StatsRepositoryPG) IncrementCounters(ctx context.Context, day string, counters map[string]int) error {
	query := `
INSERT INTO generation_stats (day, counter, value)
VALUES ($1, $2, $3)
ON CONFLICT (day, counter) DO UPDATE SET
    value = generation_stats.value + EXCLUDED.value,
    updated_at = NOW();
`
	for counter, value := range counters {
		if value == 0 {
			continue
		}
		if _, err := r.pool.Exec(ctx, query, day, counter, value); err != nil {
			return err
		}
	}
	return nil
}

// GetSummary returns counters aggregated over all days.
func (r *StatsRepositoryPG) GetSummary(ctx context.Context) (map[string]int, error) {
	rows, err := r.pool.Query(ctx, `
SELECT counter, SUM(value)::bigint
FROM generation_stats
GROUP BY counter;
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summary := make(map[string]int)
	for rows.Next() {
		var counter string
		var value int64
		if err := rows.Scan(&counter, &value); err != nil {
			return nil, err
		}
		summary[counter] = int(value)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return summary, nil
}
