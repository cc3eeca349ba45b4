package memory

import (
	"context"
	"sort"

	"github.com/Dosada05/tournament-engine/models"
	"github.com/Dosada05/tournament-engine/repositories"
	"github.com/google/uuid"
)

type enrollmentRepo struct{ s *Store }

func (s *Store) enrolledLocked(tournamentID, userID uuid.UUID) bool {
	for _, e := range s.data.enrollments[tournamentID] {
		if e.UserID == userID {
			return true
		}
	}
	return false
}

func (r enrollmentRepo) Create(_ context.Context, exec repositories.SQLExecutor, e *models.Enrollment) error {
	defer r.s.lock(exec)()

	if r.s.enrolledLocked(e.TournamentID, e.UserID) {
		return repositories.ErrEnrollmentConflict
	}
	e.JoinedAt = r.s.now()
	r.s.data.enrollments[e.TournamentID] = append(r.s.data.enrollments[e.TournamentID], *e)
	return nil
}

func (r enrollmentRepo) ListParticipants(_ context.Context, exec repositories.SQLExecutor, tournamentID uuid.UUID) ([]uuid.UUID, error) {
	defer r.s.lock(exec)()

	ids := make([]uuid.UUID, 0, len(r.s.data.enrollments[tournamentID]))
	for _, e := range r.s.data.enrollments[tournamentID] {
		ids = append(ids, e.UserID)
	}
	return ids, nil
}

func (r enrollmentRepo) Count(_ context.Context, exec repositories.SQLExecutor, tournamentID uuid.UUID) (int, error) {
	defer r.s.lock(exec)()
	return len(r.s.data.enrollments[tournamentID]), nil
}

type standingRepo struct{ s *Store }

func (r standingRepo) Reset(_ context.Context, exec repositories.SQLExecutor, tournamentID, userID uuid.UUID) error {
	defer r.s.lock(exec)()

	r.s.data.standings[standingKey{tournamentID, userID}] = &models.Standing{
		TournamentID: tournamentID,
		UserID:       userID,
		UpdatedAt:    r.s.now(),
	}
	return nil
}

func (r standingRepo) Increment(_ context.Context, exec repositories.SQLExecutor, tournamentID, userID uuid.UUID, delta models.StandingDelta) error {
	defer r.s.lock(exec)()

	st, ok := r.s.data.standings[standingKey{tournamentID, userID}]
	if !ok {
		return repositories.ErrStandingNotFound
	}
	st.Points += delta.Points
	st.Wins += delta.Wins
	st.Losses += delta.Losses
	st.UpdatedAt = r.s.now()
	return nil
}

func (r standingRepo) Get(_ context.Context, exec repositories.SQLExecutor, tournamentID, userID uuid.UUID) (*models.Standing, error) {
	defer r.s.lock(exec)()

	st, ok := r.s.data.standings[standingKey{tournamentID, userID}]
	if !ok {
		return nil, repositories.ErrStandingNotFound
	}
	cp := *st
	return &cp, nil
}

func (r standingRepo) ListByTournament(_ context.Context, exec repositories.SQLExecutor, tournamentID uuid.UUID) ([]*models.Standing, error) {
	defer r.s.lock(exec)()

	result := make([]*models.Standing, 0)
	for k, st := range r.s.data.standings {
		if k.tournamentID != tournamentID {
			continue
		}
		cp := *st
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.Wins != b.Wins {
			return a.Wins > b.Wins
		}
		if a.Losses != b.Losses {
			return a.Losses < b.Losses
		}
		return a.UserID.String() < b.UserID.String()
	})
	return result, nil
}

type claimRepo struct{ s *Store }

func (r claimRepo) Claim(_ context.Context, exec repositories.SQLExecutor, tournamentID uuid.UUID, key string) (bool, error) {
	defer r.s.lock(exec)()

	k := claimKey{tournamentID, key}
	if _, taken := r.s.data.claims[k]; taken {
		return false, nil
	}
	r.s.data.claims[k] = struct{}{}
	return true, nil
}

type auditRepo struct{ s *Store }

func (r auditRepo) Append(_ context.Context, exec repositories.SQLExecutor, event *models.AuditEvent) error {
	defer r.s.lock(exec)()

	event.CreatedAt = r.s.now()
	r.s.data.audit = append(r.s.data.audit, *event)
	return nil
}

func (r auditRepo) ListByEntity(_ context.Context, exec repositories.SQLExecutor, entity string, entityID uuid.UUID) ([]*models.AuditEvent, error) {
	defer r.s.lock(exec)()

	events := make([]*models.AuditEvent, 0)
	for _, e := range r.s.data.audit {
		if e.Entity == entity && e.EntityID == entityID {
			cp := e
			events = append(events, &cp)
		}
	}
	return events, nil
}
