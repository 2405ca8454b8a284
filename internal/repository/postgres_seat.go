package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/megacine/reservation-system/internal/domain"
)

type PostgresSeatRepository struct {
	db *pgxpool.Pool
}

func NewPostgresSeatRepository(db *pgxpool.Pool) *PostgresSeatRepository {
	return &PostgresSeatRepository{
		db: db,
	}
}

const screeningSeatColumns = `
	ss.id, ss.screening_id, ss.seat_id, s.seat_row, s.seat_col, s.seat_type, ss.price, ss.status
`

func scanScreeningSeat(row pgx.Row, seat *domain.ScreeningSeat) error {
	return row.Scan(
		&seat.ID,
		&seat.ScreeningID,
		&seat.SeatID,
		&seat.Row,
		&seat.Col,
		&seat.SeatType,
		&seat.Price,
		&seat.Status,
	)
}

func (p *PostgresSeatRepository) GetById(ctx context.Context, id int) (*domain.ScreeningSeat, error) {
	query := `
		SELECT ` + screeningSeatColumns + `
		FROM screening_seats ss
		JOIN seats s ON ss.seat_id = s.id
		WHERE ss.id = $1
	`

	var seat domain.ScreeningSeat

	err := scanScreeningSeat(p.db.QueryRow(ctx, query, id), &seat)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSeatNotFound
		}

		return nil, err
	}

	return &seat, nil
}

func (p *PostgresSeatRepository) GetByScreening(ctx context.Context, screeningId int) ([]domain.ScreeningSeat, error) {
	query := `
		SELECT ` + screeningSeatColumns + `
		FROM screening_seats ss
		JOIN seats s ON ss.seat_id = s.id
		WHERE ss.screening_id = $1
		ORDER BY s.seat_row, s.seat_col
	`

	rows, err := p.db.Query(ctx, query, screeningId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectScreeningSeats(rows)
}

func (p *PostgresSeatRepository) GetByIdsAndScreening(
	ctx context.Context,
	seatIds []int,
	screeningId int) ([]domain.ScreeningSeat, error) {

	query := `
		SELECT ` + screeningSeatColumns + `
		FROM screening_seats ss
		JOIN seats s ON ss.seat_id = s.id
		WHERE ss.id = ANY($1) AND ss.screening_id = $2
		ORDER BY ss.id
	`

	rows, err := p.db.Query(ctx, query, seatIds, screeningId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectScreeningSeats(rows)
}

// GetByIdsAndScreeningForUpdate locks exactly the requested rows for the
// duration of the transaction. Rows are locked in ascending id order; the
// database's deadlock detection backstops anything that still crosses.
func (p *PostgresSeatRepository) GetByIdsAndScreeningForUpdate(
	ctx context.Context,
	tx pgx.Tx,
	seatIds []int,
	screeningId int) ([]domain.ScreeningSeat, error) {

	query := `
		SELECT ` + screeningSeatColumns + `
		FROM screening_seats ss
		JOIN seats s ON ss.seat_id = s.id
		WHERE ss.id = ANY($1) AND ss.screening_id = $2
		ORDER BY ss.id
		FOR UPDATE OF ss
	`

	rows, err := tx.Query(ctx, query, seatIds, screeningId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectScreeningSeats(rows)
}

func (p *PostgresSeatRepository) UpdateStatus(
	ctx context.Context,
	seatId int,
	from []domain.SeatStatus,
	to domain.SeatStatus) error {

	query := `
		UPDATE screening_seats
		SET status = $1
		WHERE id = $2 AND status = ANY($3)
	`

	fromStatuses := make([]string, len(from))
	for i, s := range from {
		fromStatuses[i] = string(s)
	}

	tag, err := p.db.Exec(ctx, query, to, seatId, fromStatuses)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrEditConflict
	}

	return nil
}

func (p *PostgresSeatRepository) UpdateStatuses(
	ctx context.Context,
	tx pgx.Tx,
	seatIds []int,
	status domain.SeatStatus) error {

	query := `
		UPDATE screening_seats
		SET status = $1
		WHERE id = ANY($2)
	`

	_, err := pick(tx, p.db).Exec(ctx, query, status, seatIds)

	return err
}

func collectScreeningSeats(rows pgx.Rows) ([]domain.ScreeningSeat, error) {
	seats := make([]domain.ScreeningSeat, 0)

	for rows.Next() {
		var seat domain.ScreeningSeat

		err := scanScreeningSeat(rows, &seat)
		if err != nil {
			return nil, err
		}

		seats = append(seats, seat)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return seats, nil
}
