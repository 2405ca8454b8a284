package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/megacine/reservation-system/internal/domain"
)

type PostgresReservationRepository struct {
	db *pgxpool.Pool
}

func NewPostgresReservationRepository(db *pgxpool.Pool) *PostgresReservationRepository {
	return &PostgresReservationRepository{
		db: db,
	}
}

func (p *PostgresReservationRepository) CreateGroup(
	ctx context.Context,
	tx pgx.Tx,
	group *domain.ReservationGroup) error {

	query := `
		INSERT INTO reservation_groups (user_id, total_price, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`

	err := tx.QueryRow(ctx, query, group.UserID, group.TotalPrice, group.Status).
		Scan(&group.ID, &group.CreatedAt, &group.UpdatedAt)
	if err != nil {
		return err
	}

	rows := make([][]any, 0, len(group.Reservations))
	for i := range group.Reservations {
		group.Reservations[i].GroupID = group.ID

		rows = append(rows, []any{
			group.ID,
			group.Reservations[i].ScreeningSeatID,
			group.Reservations[i].Price,
		})
	}

	_, err = tx.CopyFrom(
		ctx,
		pgx.Identifier{"reservations"},
		[]string{"reservation_group_id", "screening_seat_id", "price"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		// The partial unique index on active reservations is the last line
		// of defense against double-selling a seat.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return domain.ErrSeatNotAvailable
		}

		return err
	}

	return nil
}

func (p *PostgresReservationRepository) GetGroupByIdAndUserForUpdate(
	ctx context.Context,
	tx pgx.Tx,
	groupId,
	userId int) (*domain.ReservationGroup, error) {

	query := `
		SELECT id, user_id, total_price, status, created_at, updated_at
		FROM reservation_groups
		WHERE id = $1 AND user_id = $2
		FOR UPDATE
	`

	var group domain.ReservationGroup

	err := tx.QueryRow(ctx, query, groupId, userId).Scan(
		&group.ID,
		&group.UserID,
		&group.TotalPrice,
		&group.Status,
		&group.CreatedAt,
		&group.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrReservationNotFound
		}

		return nil, err
	}

	group.Reservations, err = p.memberReservations(ctx, tx, group.ID)
	if err != nil {
		return nil, err
	}

	return &group, nil
}

func (p *PostgresReservationRepository) memberReservations(
	ctx context.Context,
	tx pgx.Tx,
	groupId int) ([]domain.Reservation, error) {

	query := `
		SELECT id, reservation_group_id, screening_seat_id, price, cancelled, created_at
		FROM reservations
		WHERE reservation_group_id = $1
		ORDER BY id
	`

	rows, err := tx.Query(ctx, query, groupId)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Reservation, error) {
		var r domain.Reservation

		err := row.Scan(&r.ID, &r.GroupID, &r.ScreeningSeatID, &r.Price, &r.Cancelled, &r.CreatedAt)

		return r, err
	})
}

func (p *PostgresReservationRepository) GetGroupsByScreeningForUpdate(
	ctx context.Context,
	tx pgx.Tx,
	screeningId int) ([]domain.ReservationGroup, error) {

	query := `
		SELECT DISTINCT rg.id, rg.user_id, rg.total_price, rg.status, rg.created_at, rg.updated_at
		FROM reservation_groups rg
		JOIN reservations r ON r.reservation_group_id = rg.id
		JOIN screening_seats ss ON r.screening_seat_id = ss.id
		WHERE ss.screening_id = $1 AND rg.status != $2
		ORDER BY rg.id
		FOR UPDATE OF rg
	`

	rows, err := tx.Query(ctx, query, screeningId, domain.ReservationStatusCancelled)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	groups := make([]domain.ReservationGroup, 0)

	for rows.Next() {
		var group domain.ReservationGroup

		err := rows.Scan(
			&group.ID,
			&group.UserID,
			&group.TotalPrice,
			&group.Status,
			&group.CreatedAt,
			&group.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}

		groups = append(groups, group)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return groups, nil
}

func (p *PostgresReservationRepository) UpdateGroupStatus(
	ctx context.Context,
	tx pgx.Tx,
	group *domain.ReservationGroup) error {

	query := `
		UPDATE reservation_groups
		SET status = $1, updated_at = NOW()
		WHERE id = $2
	`

	_, err := pick(tx, p.db).Exec(ctx, query, group.Status, group.ID)

	return err
}

// CancelGroupAndReleaseSeats is the only path that returns RESERVED seats to
// AVAILABLE after a committed booking. A second call on an already cancelled
// group is a no-op.
func (p *PostgresReservationRepository) CancelGroupAndReleaseSeats(
	ctx context.Context,
	tx pgx.Tx,
	groupId int) error {

	query := `
		UPDATE reservation_groups
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status != $1
	`

	tag, err := pick(tx, p.db).Exec(ctx, query, domain.ReservationStatusCancelled, groupId)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return nil
	}

	query = `
		UPDATE screening_seats
		SET status = $1
		WHERE id IN (
			SELECT screening_seat_id
			FROM reservations
			WHERE reservation_group_id = $2 AND cancelled = FALSE
		)
	`

	_, err = pick(tx, p.db).Exec(ctx, query, domain.SeatStatusAvailable, groupId)
	if err != nil {
		return err
	}

	query = `
		UPDATE reservations
		SET cancelled = TRUE
		WHERE reservation_group_id = $1
	`

	_, err = pick(tx, p.db).Exec(ctx, query, groupId)

	return err
}

func (p *PostgresReservationRepository) GetSummariesByUserId(
	ctx context.Context,
	userId int,
	pagination domain.Pagination) ([]domain.ReservationSummary, *domain.Metadata, error) {

	query := `
		SELECT
			COUNT(*) OVER(),
			rg.id,
			s.movie_title,
			s.theater_name,
			s.hall_name,
			s.start_time,
			rg.total_price,
			rg.status,
			COUNT(r.id),
			rg.created_at
		FROM reservation_groups rg
		JOIN reservations r ON r.reservation_group_id = rg.id
		JOIN screening_seats ss ON r.screening_seat_id = ss.id
		JOIN screenings s ON ss.screening_id = s.id
		WHERE rg.user_id = $1
		GROUP BY rg.id, s.movie_title, s.theater_name, s.hall_name, s.start_time
		ORDER BY rg.created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := p.db.Query(ctx, query, userId, pagination.Limit(), pagination.Offset())
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	summaries := make([]domain.ReservationSummary, 0)
	totalRecords := 0

	for rows.Next() {
		var summary domain.ReservationSummary

		err := rows.Scan(
			&totalRecords,
			&summary.GroupID,
			&summary.MovieTitle,
			&summary.TheaterName,
			&summary.HallName,
			&summary.StartTime,
			&summary.TotalPrice,
			&summary.Status,
			&summary.SeatCount,
			&summary.CreatedAt,
		)
		if err != nil {
			return nil, nil, err
		}

		summaries = append(summaries, summary)
	}

	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	metadata := domain.NewMetadata(totalRecords, pagination.Page, pagination.PageSize)

	return summaries, metadata, nil
}

func (p *PostgresReservationRepository) GetDetailByIdAndUserId(
	ctx context.Context,
	groupId,
	userId int) (*domain.ReservationDetail, error) {

	query := `
		SELECT DISTINCT
			rg.id,
			s.movie_title,
			s.theater_name,
			s.hall_name,
			s.start_time,
			rg.total_price,
			rg.status,
			rg.created_at
		FROM reservation_groups rg
		JOIN reservations r ON r.reservation_group_id = rg.id
		JOIN screening_seats ss ON r.screening_seat_id = ss.id
		JOIN screenings s ON ss.screening_id = s.id
		WHERE rg.id = $1 AND rg.user_id = $2
	`

	var detail domain.ReservationDetail

	err := p.db.QueryRow(ctx, query, groupId, userId).Scan(
		&detail.GroupID,
		&detail.MovieTitle,
		&detail.TheaterName,
		&detail.HallName,
		&detail.StartTime,
		&detail.TotalPrice,
		&detail.Status,
		&detail.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrReservationNotFound
		}

		return nil, err
	}

	seats, err := p.retrieveGroupSeats(ctx, groupId)
	if err != nil {
		return nil, err
	}

	detail.Seats = seats

	return &detail, nil
}

func (p *PostgresReservationRepository) retrieveGroupSeats(
	ctx context.Context,
	groupId int) ([]domain.ReservationDetailSeat, error) {

	query := `
		SELECT st.seat_row, st.seat_col, st.seat_type, r.price
		FROM reservations r
		JOIN screening_seats ss ON r.screening_seat_id = ss.id
		JOIN seats st ON ss.seat_id = st.id
		WHERE r.reservation_group_id = $1
		ORDER BY st.seat_row, st.seat_col
	`

	rows, err := p.db.Query(ctx, query, groupId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seats := make([]domain.ReservationDetailSeat, 0)

	for rows.Next() {
		var seat domain.ReservationDetailSeat

		err := rows.Scan(&seat.Row, &seat.Col, &seat.SeatType, &seat.Price)
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
