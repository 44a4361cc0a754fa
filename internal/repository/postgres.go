package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/senyabanana/freight-bidding/internal/engine"
	"github.com/senyabanana/freight-bidding/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

const requestColumns = `id, lane, material, capacity, reserved_price, ceiling_price, step_value, mode, status,
	bid_start, bid_end, winning_offer_id, final_amount, counter_offer_amount, lowest_amount, lowest_bidder,
	vehicle_number, driver_contact, version, created_at, created_by`

// PostgresRequestRepository - реализация RequestRepository для базы данных.
type PostgresRequestRepository struct {
	DB     *pgxpool.Pool
	events *broadcaster
}

// NewPostgresRequestRepository создает новый экземпляр PostgresRequestRepository.
func NewPostgresRequestRepository(db *pgxpool.Pool) *PostgresRequestRepository {
	return &PostgresRequestRepository{DB: db, events: newBroadcaster()}
}

// CreateRequest сохраняет новую заявку.
func (r *PostgresRequestRepository) CreateRequest(ctx context.Context, request models.Request) error {
	insertQuery := `INSERT INTO request (id, lane, material, capacity, reserved_price, ceiling_price, step_value, mode, status,
	                bid_start, bid_end, winning_offer_id, final_amount, counter_offer_amount, lowest_amount, lowest_bidder,
	                vehicle_number, driver_contact, version, created_at, created_by)
	                VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)`
	_, err := r.DB.Exec(
		ctx,
		insertQuery,
		request.ID,
		request.Lane,
		request.Material,
		request.Capacity,
		request.ReservedPrice,
		request.CeilingPrice,
		request.StepValue,
		request.Mode,
		request.Status,
		request.BidStart,
		request.BidEnd,
		request.WinningOfferID,
		request.FinalAmount,
		request.CounterOfferAmount,
		request.LowestAmount,
		request.LowestBidder,
		request.VehicleNumber,
		request.DriverContact,
		request.Version,
		request.CreatedAt,
		request.CreatedBy)
	if err != nil {
		return fmt.Errorf("failed to insert request: %w", err)
	}
	return nil
}

// GetRequest возвращает заявку по id.
func (r *PostgresRequestRepository) GetRequest(ctx context.Context, requestID string) (*models.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM request WHERE id = $1`
	request, err := scanRequest(r.DB.QueryRow(ctx, query, requestID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return request, nil
}

// ListOpenRequests возвращает открытые заявки, при непустом списке направлений -
// только по этим направлениям.
func (r *PostgresRequestRepository) ListOpenRequests(ctx context.Context, lanes []string, limit, offset int) ([]models.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM request WHERE status = $1`
	args := []interface{}{models.OpenRequest}
	argIndex := 2

	if len(lanes) > 0 {
		query += fmt.Sprintf(" AND lane = ANY($%d)", argIndex)
		args = append(args, pq.Array(lanes))
		argIndex++
	}

	query += fmt.Sprintf(" ORDER BY bid_end LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, limit, offset)

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []models.Request
	for rows.Next() {
		request, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, *request)
	}
	return requests, rows.Err()
}

// ListOffers возвращает все предложения по заявке.
func (r *PostgresRequestRepository) ListOffers(ctx context.Context, requestID string) ([]models.Offer, error) {
	query := `SELECT id, request_id, bidder_id, bidder_name, amount, status, created_at
	          FROM offer WHERE request_id = $1 ORDER BY created_at`
	rows, err := r.DB.Query(ctx, query, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var offers []models.Offer
	for rows.Next() {
		var offer models.Offer
		if err := rows.Scan(
			&offer.ID,
			&offer.RequestID,
			&offer.BidderID,
			&offer.BidderName,
			&offer.Amount,
			&offer.Status,
			&offer.CreatedAt); err != nil {
			return nil, err
		}
		offers = append(offers, offer)
	}
	return offers, rows.Err()
}

// GetBidder возвращает участника по id.
func (r *PostgresRequestRepository) GetBidder(ctx context.Context, bidderID string) (*models.Bidder, error) {
	var bidder models.Bidder
	query := `SELECT id, name, lanes FROM bidder WHERE id = $1`
	err := r.DB.QueryRow(ctx, query, bidderID).Scan(&bidder.ID, &bidder.Name, pq.Array(&bidder.Lanes))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &bidder, nil
}

// CreateBidder сохраняет участника.
func (r *PostgresRequestRepository) CreateBidder(ctx context.Context, bidder models.Bidder) error {
	insertQuery := `INSERT INTO bidder (id, name, lanes) VALUES ($1, $2, $3)`
	_, err := r.DB.Exec(ctx, insertQuery, bidder.ID, bidder.Name, pq.Array(bidder.Lanes))
	if err != nil {
		return fmt.Errorf("failed to insert bidder: %w", err)
	}
	return nil
}

// SubmitOffer атомарно записывает предложение одной транзакцией: обновление
// кэша минимума и версии заявки условно по ожидаемой версии, перевод
// замененного предложения в Outbid, вставка нового.
func (r *PostgresRequestRepository) SubmitOffer(ctx context.Context, request models.Request, offer models.Offer, supersededOfferID string, expectedVersion int32) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	updateQuery := `UPDATE request SET lowest_amount = $1, lowest_bidder = $2, version = version + 1
	                WHERE id = $3 AND version = $4`
	tag, err := tx.Exec(ctx, updateQuery, request.LowestAmount, request.LowestBidder, request.ID, expectedVersion)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrVersionConflict
	}

	if supersededOfferID != "" {
		_, err = tx.Exec(ctx, `UPDATE offer SET status = $1 WHERE id = $2`, models.OutbidOffer, supersededOfferID)
		if err != nil {
			return err
		}
	}

	insertQuery := `INSERT INTO offer (id, request_id, bidder_id, bidder_name, amount, status, created_at)
	                VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err = tx.Exec(
		ctx,
		insertQuery,
		offer.ID,
		offer.RequestID,
		offer.BidderID,
		offer.BidderName,
		offer.Amount,
		offer.Status,
		offer.CreatedAt)
	if err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return err
	}

	r.events.publish(ChangeEvent{
		RequestID:    request.ID,
		Status:       request.Status,
		LowestAmount: request.LowestAmount,
		LowestBidder: request.LowestBidder,
		OccurredAt:   time.Now().UTC(),
	})
	return nil
}

// ApplyResolution атомарно применяет решение движка одной транзакцией,
// условно по ожидаемой версии заявки.
func (r *PostgresRequestRepository) ApplyResolution(ctx context.Context, res engine.Resolution, expectedVersion int32) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	updated := res.Request
	updateQuery := `UPDATE request SET status = $1, winning_offer_id = $2, final_amount = $3, counter_offer_amount = $4,
	                lowest_amount = $5, lowest_bidder = $6, vehicle_number = $7, driver_contact = $8, version = version + 1
	                WHERE id = $9 AND version = $10`
	tag, err := tx.Exec(
		ctx,
		updateQuery,
		updated.Status,
		updated.WinningOfferID,
		updated.FinalAmount,
		updated.CounterOfferAmount,
		updated.LowestAmount,
		updated.LowestBidder,
		updated.VehicleNumber,
		updated.DriverContact,
		updated.ID,
		expectedVersion)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrVersionConflict
	}

	for _, change := range res.Changes {
		_, err = tx.Exec(ctx, `UPDATE offer SET status = $1 WHERE id = $2`, change.Status, change.OfferID)
		if err != nil {
			return err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return err
	}

	r.events.publish(ChangeEvent{
		RequestID:    updated.ID,
		Status:       updated.Status,
		LowestAmount: updated.LowestAmount,
		LowestBidder: updated.LowestBidder,
		OccurredAt:   time.Now().UTC(),
	})
	return nil
}

// Subscribe возвращает поток событий изменений заявок.
func (r *PostgresRequestRepository) Subscribe(requestID string) (<-chan ChangeEvent, func()) {
	return r.events.Subscribe(requestID)
}

// scanRequest читает строку заявки в модель.
func scanRequest(row pgx.Row) (*models.Request, error) {
	var request models.Request
	err := row.Scan(
		&request.ID,
		&request.Lane,
		&request.Material,
		&request.Capacity,
		&request.ReservedPrice,
		&request.CeilingPrice,
		&request.StepValue,
		&request.Mode,
		&request.Status,
		&request.BidStart,
		&request.BidEnd,
		&request.WinningOfferID,
		&request.FinalAmount,
		&request.CounterOfferAmount,
		&request.LowestAmount,
		&request.LowestBidder,
		&request.VehicleNumber,
		&request.DriverContact,
		&request.Version,
		&request.CreatedAt,
		&request.CreatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &request, nil
}
