package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/megacine/reservation-system/internal/domain"
)

type PostgresScreeningRepository struct {
	db *pgxpool.Pool
}

func NewPostgresScreeningRepository(db *pgxpool.Pool) *PostgresScreeningRepository {
	return &PostgresScreeningRepository{
		db: db,
	}
}

func (p *PostgresScreeningRepository) GetById(ctx context.Context, tx pgx.Tx, id int) (*domain.Screening, error) {
	query := `
		SELECT id, movie_title, theater_name, hall_name, start_time, end_time, status, created_at, updated_at
		FROM screenings
		WHERE id = $1
	`

	var screening domain.Screening

	row := p.row(tx).QueryRow(ctx, query, id)

	err := row.Scan(
		&screening.ID,
		&screening.MovieTitle,
		&screening.TheaterName,
		&screening.HallName,
		&screening.StartTime,
		&screening.EndTime,
		&screening.Status,
		&screening.CreatedAt,
		&screening.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrScreeningNotFound
		}

		return nil, err
	}

	return &screening, nil
}

func (p *PostgresScreeningRepository) GetStartTimeByGroup(
	ctx context.Context,
	tx pgx.Tx,
	groupId,
	userId int) (time.Time, error) {

	query := `
		SELECT DISTINCT s.start_time
		FROM reservation_groups rg
		JOIN reservations r ON r.reservation_group_id = rg.id
		JOIN screening_seats ss ON r.screening_seat_id = ss.id
		JOIN screenings s ON ss.screening_id = s.id
		WHERE rg.id = $1 AND rg.user_id = $2
	`

	var startTime time.Time

	err := p.row(tx).QueryRow(ctx, query, groupId, userId).Scan(&startTime)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, domain.ErrReservationNotFound
		}

		return time.Time{}, err
	}

	return startTime, nil
}

func (p *PostgresScreeningRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, screening *domain.Screening) error {
	query := `
		UPDATE screenings
		SET status = $1, updated_at = NOW()
		WHERE id = $2
	`

	_, err := p.row(tx).Exec(ctx, query, screening.Status, screening.ID)

	return err
}

// EndPastScreenings marks every scheduled screening whose end time has
// passed as ENDED and reports how many rows it touched.
func (p *PostgresScreeningRepository) EndPastScreenings(ctx context.Context, now time.Time) (int, error) {
	query := `
		UPDATE screenings
		SET status = $1, updated_at = NOW()
		WHERE status = $2 AND end_time < $3
	`

	tag, err := p.db.Exec(ctx, query, domain.ScreeningStatusEnded, domain.ScreeningStatusScheduled, now)
	if err != nil {
		return 0, err
	}

	return int(tag.RowsAffected()), nil
}

func (p *PostgresScreeningRepository) row(tx pgx.Tx) querier {
	return pick(tx, p.db)
}
