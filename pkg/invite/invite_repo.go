package invite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

type Repository interface {
	StoreInvite(ctx context.Context, invite Invite) (Invite, error)
	FindInvite(ctx context.Context, id int) (*Invite, error)
	FindByEventAndInvitee(ctx context.Context, eventId, inviteeId int) (*Invite, error)
	FindForEvent(ctx context.Context, eventId int) ([]Invite, error)
	FindForInvitee(ctx context.Context, inviteeId int, status *Status) ([]Invite, error)
	UpdateStatus(ctx context.Context, id int, status Status, respondedAt time.Time) error
	CancelOpenInvitesForEvent(ctx context.Context, eventId int) (int, error)
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

const inviteColumns = `id, event_id, inviter_id, invitee_id, status, created_at, responded_at`

func (r *RepositoryImpl) StoreInvite(ctx context.Context, invite Invite) (Invite, error) {
	const query = `
		INSERT INTO event_invite (event_id, inviter_id, invitee_id, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`
	err := r.db.QueryRow(ctx, query,
		invite.EventID,
		invite.InviterID,
		invite.InviteeID,
		invite.Status,
	).Scan(&invite.ID, &invite.CreatedAt)
	if err != nil {
		log.Errorf("failed to store invite: %v", err)
		return Invite{}, fmt.Errorf("failed to store invite: %w", err)
	}
	return invite, nil
}

func (r *RepositoryImpl) FindInvite(ctx context.Context, id int) (*Invite, error) {
	query := `SELECT ` + inviteColumns + ` FROM event_invite WHERE id = $1`
	return r.findOne(ctx, query, id)
}

func (r *RepositoryImpl) FindByEventAndInvitee(ctx context.Context, eventId, inviteeId int) (*Invite, error) {
	query := `SELECT ` + inviteColumns + ` FROM event_invite WHERE event_id = $1 AND invitee_id = $2`
	return r.findOne(ctx, query, eventId, inviteeId)
}

func (r *RepositoryImpl) findOne(ctx context.Context, query string, args ...any) (*Invite, error) {
	var invite Invite
	err := r.db.QueryRow(ctx, query, args...).Scan(
		&invite.ID,
		&invite.EventID,
		&invite.InviterID,
		&invite.InviteeID,
		&invite.Status,
		&invite.CreatedAt,
		&invite.RespondedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		log.Errorf("failed to find invite: %v", err)
		return nil, fmt.Errorf("failed to find invite: %w", err)
	}
	return &invite, nil
}

func (r *RepositoryImpl) FindForEvent(ctx context.Context, eventId int) ([]Invite, error) {
	query := `SELECT ` + inviteColumns + ` FROM event_invite WHERE event_id = $1 ORDER BY created_at`
	return r.findMany(ctx, query, eventId)
}

func (r *RepositoryImpl) FindForInvitee(ctx context.Context, inviteeId int, status *Status) ([]Invite, error) {
	if status != nil {
		query := `SELECT ` + inviteColumns + ` FROM event_invite WHERE invitee_id = $1 AND status = $2 ORDER BY created_at`
		return r.findMany(ctx, query, inviteeId, *status)
	}
	query := `SELECT ` + inviteColumns + ` FROM event_invite WHERE invitee_id = $1 ORDER BY created_at`
	return r.findMany(ctx, query, inviteeId)
}

func (r *RepositoryImpl) findMany(ctx context.Context, query string, args ...any) ([]Invite, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		log.Errorf("failed to query invites: %v", err)
		return nil, fmt.Errorf("failed to query invites: %w", err)
	}
	defer rows.Close()

	invites := make([]Invite, 0, 10)
	for rows.Next() {
		var invite Invite
		err := rows.Scan(
			&invite.ID,
			&invite.EventID,
			&invite.InviterID,
			&invite.InviteeID,
			&invite.Status,
			&invite.CreatedAt,
			&invite.RespondedAt,
		)
		if err != nil {
			log.Errorf("failed to scan invite: %v", err)
			return nil, fmt.Errorf("failed to scan invite: %w", err)
		}
		invites = append(invites, invite)
	}
	if err := rows.Err(); err != nil {
		log.Errorf("error iterating over invites: %v", err)
		return nil, err
	}
	return invites, nil
}

func (r *RepositoryImpl) UpdateStatus(ctx context.Context, id int, status Status, respondedAt time.Time) error {
	result, err := r.db.Exec(ctx,
		"UPDATE event_invite SET status = $1, responded_at = $2 WHERE id = $3",
		status, respondedAt, id)
	if err != nil {
		log.Errorf("failed to update invite %d: %v", id, err)
		return fmt.Errorf("failed to update invite: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrInviteNotFound
	}
	return nil
}

// CancelOpenInvitesForEvent flips every PENDING or ACCEPTED invite of the
// event to CANCELLED and reports how many were affected.
func (r *RepositoryImpl) CancelOpenInvitesForEvent(ctx context.Context, eventId int) (int, error) {
	result, err := r.db.Exec(ctx,
		"UPDATE event_invite SET status = $1 WHERE event_id = $2 AND status IN ($3, $4)",
		StatusCancelled, eventId, StatusPending, StatusAccepted)
	if err != nil {
		log.Errorf("failed to cancel invites for event %d: %v", eventId, err)
		return 0, fmt.Errorf("failed to cancel invites: %w", err)
	}
	return int(result.RowsAffected()), nil
}
