package event

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

type Repository interface {
	StoreEvent(ctx context.Context, event Event) (Event, error)
	UpdateEvent(ctx context.Context, event Event) (Event, error)
	FindEvent(ctx context.Context, id int) (*Event, error)
	FindEventIncludingDeleted(ctx context.Context, id int) (*Event, error)
	FindEventsForUsersInRange(ctx context.Context, userIds []int, from, to time.Time) ([]VisibleEvent, error)
	FindDeletedEvents(ctx context.Context, userId int) ([]Event, error)
	MarkDeleted(ctx context.Context, id int, at time.Time) error
	ClearDeleted(ctx context.Context, id int) error
	DeleteEventPermanently(ctx context.Context, id int) error
}

// VisibleEvent pairs an event with a user it is visible to: its owner, or an
// invitee who accepted. The same event appears once per visible user in the
// queried set.
type VisibleEvent struct {
	UserID int
	Event  Event
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

const eventColumns = `e.id, e.uid, e.user_id, e.title, e.description, e.colour, e.start_time, e.end_time, e.deleted_at,
		r.pattern, r.end_at, r.weekdays, r.month_days`

const eventJoin = `FROM event e LEFT JOIN event_recurrence r ON r.event_id = e.id`

// StoreEvent inserts the event together with its optional recurrence rule in
// one transaction.
func (r *RepositoryImpl) StoreEvent(ctx context.Context, event Event) (Event, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return Event{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	const insertEvent = `
		INSERT INTO event (uid, user_id, title, description, colour, start_time, end_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	err = tx.QueryRow(ctx, insertEvent,
		event.UID,
		event.UserID,
		event.Title,
		event.Description,
		event.Colour,
		event.StartTime,
		event.EndTime,
	).Scan(&event.ID)
	if err != nil {
		log.Errorf("failed to insert event: %v", err)
		return Event{}, fmt.Errorf("failed to insert event: %w", err)
	}

	if err := insertRecurrence(ctx, tx, event.ID, event.Recurrence); err != nil {
		return Event{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Event{}, fmt.Errorf("commit transaction: %w", err)
	}
	return event, nil
}

// UpdateEvent rewrites the event row and replaces its recurrence rule
// wholesale: the previous rule is removed even when the update has none.
func (r *RepositoryImpl) UpdateEvent(ctx context.Context, event Event) (Event, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return Event{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	const updateEvent = `
		UPDATE event SET title = $1, description = $2, colour = $3, start_time = $4, end_time = $5
		WHERE id = $6 AND deleted_at IS NULL`
	result, err := tx.Exec(ctx, updateEvent,
		event.Title,
		event.Description,
		event.Colour,
		event.StartTime,
		event.EndTime,
		event.ID,
	)
	if err != nil {
		log.Errorf("failed to update event %d: %v", event.ID, err)
		return Event{}, fmt.Errorf("failed to update event: %w", err)
	}
	if result.RowsAffected() == 0 {
		return Event{}, ErrEventNotFound
	}

	if _, err := tx.Exec(ctx, "DELETE FROM event_recurrence WHERE event_id = $1", event.ID); err != nil {
		return Event{}, fmt.Errorf("failed to replace recurrence rule: %w", err)
	}
	if err := insertRecurrence(ctx, tx, event.ID, event.Recurrence); err != nil {
		return Event{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Event{}, fmt.Errorf("commit transaction: %w", err)
	}
	return event, nil
}

func insertRecurrence(ctx context.Context, tx pgx.Tx, eventId int, rule *Recurrence) error {
	if rule == nil {
		return nil
	}
	weekdays := make([]int, 0, len(rule.Weekdays))
	for _, d := range rule.Weekdays {
		weekdays = append(weekdays, int(d))
	}
	const insert = `
		INSERT INTO event_recurrence (event_id, pattern, end_at, weekdays, month_days)
		VALUES ($1, $2, $3, $4, $5)`
	if _, err := tx.Exec(ctx, insert, eventId, rule.Pattern, rule.EndAt, weekdays, rule.MonthDays); err != nil {
		log.Errorf("failed to insert recurrence rule for event %d: %v", eventId, err)
		return fmt.Errorf("failed to insert recurrence rule: %w", err)
	}
	return nil
}

func (r *RepositoryImpl) FindEvent(ctx context.Context, id int) (*Event, error) {
	query := `SELECT ` + eventColumns + ` ` + eventJoin + ` WHERE e.id = $1 AND e.deleted_at IS NULL`
	return r.findOne(ctx, query, id)
}

// FindEventIncludingDeleted looks an event up regardless of its trash state.
// Restore and permanent deletion need to see soft-deleted rows.
func (r *RepositoryImpl) FindEventIncludingDeleted(ctx context.Context, id int) (*Event, error) {
	query := `SELECT ` + eventColumns + ` ` + eventJoin + ` WHERE e.id = $1`
	return r.findOne(ctx, query, id)
}

func (r *RepositoryImpl) findOne(ctx context.Context, query string, args ...any) (*Event, error) {
	row := r.db.QueryRow(ctx, query, args...)
	event, err := scanEvent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		log.Errorf("failed to find event: %v", err)
		return nil, fmt.Errorf("failed to find event: %w", err)
	}
	return &event, nil
}

// FindEventsForUsersInRange returns non-trashed events visible to any of the
// given users (owned or accepted-invite) that can produce occurrences in
// [from, to), paired with the user each one is visible to. The time filter is
// coarse on purpose: an unterminated recurrence whose anchor precedes the
// window end always qualifies, and exact intersection is left to expansion.
func (r *RepositoryImpl) FindEventsForUsersInRange(ctx context.Context, userIds []int, from, to time.Time) ([]VisibleEvent, error) {
	query := `SELECT v.user_id, ` + eventColumns + `
		FROM (
			SELECT id AS event_id, user_id FROM event WHERE user_id = ANY($1)
			UNION
			SELECT event_id, invitee_id FROM event_invite WHERE invitee_id = ANY($1) AND status = 'ACCEPTED'
		) v
		INNER JOIN event e ON e.id = v.event_id
		LEFT JOIN event_recurrence r ON r.event_id = e.id
		WHERE e.deleted_at IS NULL
		  AND e.start_time < $3
		  AND (r.pattern IS NOT NULL AND (r.end_at IS NULL OR r.end_at >= $2)
		       OR r.pattern IS NULL AND e.end_time > $2)
		ORDER BY v.user_id, e.start_time`

	rows, err := r.db.Query(ctx, query, userIds, from, to)
	if err != nil {
		log.Errorf("failed to query events in range: %v", err)
		return nil, fmt.Errorf("failed to query events in range: %w", err)
	}
	defer rows.Close()

	visible := make([]VisibleEvent, 0, 20)
	for rows.Next() {
		var v VisibleEvent
		var pattern sql.NullString
		var endAt sql.NullTime
		var weekdays []int
		var monthDays []int
		err := rows.Scan(
			&v.UserID,
			&v.Event.ID,
			&v.Event.UID,
			&v.Event.UserID,
			&v.Event.Title,
			&v.Event.Description,
			&v.Event.Colour,
			&v.Event.StartTime,
			&v.Event.EndTime,
			&v.Event.DeletedAt,
			&pattern,
			&endAt,
			&weekdays,
			&monthDays,
		)
		if err != nil {
			log.Errorf("failed to scan event: %v", err)
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		v.Event.Recurrence = recurrenceFromColumns(pattern, endAt, weekdays, monthDays)
		visible = append(visible, v)
	}
	if err := rows.Err(); err != nil {
		log.Errorf("error iterating over events: %v", err)
		return nil, err
	}
	return visible, nil
}

func (r *RepositoryImpl) FindDeletedEvents(ctx context.Context, userId int) ([]Event, error) {
	query := `SELECT ` + eventColumns + ` ` + eventJoin + `
		WHERE e.user_id = $1 AND e.deleted_at IS NOT NULL
		ORDER BY e.deleted_at DESC`
	return r.findMany(ctx, query, userId)
}

func (r *RepositoryImpl) findMany(ctx context.Context, query string, args ...any) ([]Event, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		log.Errorf("failed to query events: %v", err)
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	events := make([]Event, 0, 20)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			log.Errorf("failed to scan event: %v", err)
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		log.Errorf("error iterating over events: %v", err)
		return nil, err
	}
	return events, nil
}

func (r *RepositoryImpl) MarkDeleted(ctx context.Context, id int, at time.Time) error {
	result, err := r.db.Exec(ctx, "UPDATE event SET deleted_at = $1 WHERE id = $2 AND deleted_at IS NULL", at, id)
	if err != nil {
		log.Errorf("failed to trash event %d: %v", id, err)
		return fmt.Errorf("failed to trash event: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrEventNotFound
	}
	return nil
}

func (r *RepositoryImpl) ClearDeleted(ctx context.Context, id int) error {
	result, err := r.db.Exec(ctx, "UPDATE event SET deleted_at = NULL WHERE id = $1 AND deleted_at IS NOT NULL", id)
	if err != nil {
		log.Errorf("failed to restore event %d: %v", id, err)
		return fmt.Errorf("failed to restore event: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrEventNotFound
	}
	return nil
}

// DeleteEventPermanently removes the row for good; the recurrence rule and
// invites go with it via ON DELETE CASCADE.
func (r *RepositoryImpl) DeleteEventPermanently(ctx context.Context, id int) error {
	result, err := r.db.Exec(ctx, "DELETE FROM event WHERE id = $1", id)
	if err != nil {
		log.Errorf("failed to delete event %d: %v", id, err)
		return fmt.Errorf("failed to delete event: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrEventNotFound
	}
	return nil
}

func scanEvent(row pgx.Row) (Event, error) {
	var event Event
	var pattern sql.NullString
	var endAt sql.NullTime
	var weekdays []int
	var monthDays []int

	err := row.Scan(
		&event.ID,
		&event.UID,
		&event.UserID,
		&event.Title,
		&event.Description,
		&event.Colour,
		&event.StartTime,
		&event.EndTime,
		&event.DeletedAt,
		&pattern,
		&endAt,
		&weekdays,
		&monthDays,
	)
	if err != nil {
		return Event{}, err
	}
	event.Recurrence = recurrenceFromColumns(pattern, endAt, weekdays, monthDays)
	return event, nil
}

func recurrenceFromColumns(pattern sql.NullString, endAt sql.NullTime, weekdays, monthDays []int) *Recurrence {
	if !pattern.Valid {
		return nil
	}
	rule := &Recurrence{Pattern: Pattern(pattern.String), MonthDays: monthDays}
	if endAt.Valid {
		t := endAt.Time
		rule.EndAt = &t
	}
	for _, d := range weekdays {
		rule.Weekdays = append(rule.Weekdays, time.Weekday(d))
	}
	return rule
}
