// Package session persists sessions, requests, plans, and artifacts —
// each keyed by UUID with JSON payloads — and provides the per-session
// mutex that gives same-session requests linearizability, per the
// "Session store: per-session mutex" concurrency note. Adapted from the
// teacher's internal/database (Pool wrapper) and
// internal/repositories (interface-per-entity style), repurposed from
// user/destination/booking/review/payment persistence to this
// planning-service's four entities.
package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wayfarer-ai/planner/internal/database"
	"github.com/wayfarer-ai/planner/internal/models"
)

// Store wraps a database.Pool with the planning service's entity
// operations and a per-session mutex registry.
type Store struct {
	pool  *database.Pool
	locks sync.Map // session ID -> *sync.Mutex
}

// New wraps an already-connected pool. Call Migrate first.
func New(pool *database.Pool) *Store {
	return &Store{pool: pool}
}

// Lock acquires (creating if necessary) the mutex for sessionID and
// returns an unlock func — callers hold it for the duration of one
// request against that session, per §5's linearizability requirement.
func (s *Store) Lock(sessionID string) func() {
	muAny, _ := s.locks.LoadOrStore(sessionID, &sync.Mutex{})
	mu := muAny.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// EnsureSession creates sessionID if it doesn't already exist and
// touches last_active_at either way.
func (s *Store) EnsureSession(ctx context.Context, sessionID string) error {
	_, err := s.pool.ExecContext(ctx, `
		INSERT INTO sessions (id, last_active_at) VALUES ($1, now())
		ON CONFLICT (id) DO UPDATE SET last_active_at = now()`,
		sessionID)
	if err != nil {
		return fmt.Errorf("session: ensure session: %w", err)
	}
	return nil
}

// NextSequenceNumber returns the next per-session sequence number, used
// to verify no two requests to the same session interleaved (§8
// property 6).
func (s *Store) NextSequenceNumber(ctx context.Context, sessionID string) (int, error) {
	var max sql.NullInt64
	err := s.pool.QueryRowContext(ctx,
		`SELECT MAX(sequence_number) FROM requests WHERE session_id = $1`, sessionID).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("session: next sequence number: %w", err)
	}
	if !max.Valid {
		return 1, nil
	}
	return int(max.Int64) + 1, nil
}

// RequestRecord is what SaveRequest persists for one inbound request.
type RequestRecord struct {
	ID             string
	SessionID      string
	SequenceNumber int
	Message        string
	Constraints    *models.TripConstraints
	Profile        *models.UserProfile
}

// SaveRequest persists one request's final constraints/profile —
// called with the orchestrator's own Result.RequestID once Plan
// returns, so GetLatestRequest always resolves the constraints Intake
// actually settled on (filled-in defaults included), not just the
// caller's raw StructuredHint.
func (s *Store) SaveRequest(ctx context.Context, r RequestRecord) error {
	payload, err := json.Marshal(struct {
		Constraints *models.TripConstraints `json:"constraints,omitempty"`
		Profile     *models.UserProfile     `json:"profile,omitempty"`
	}{r.Constraints, r.Profile})
	if err != nil {
		return fmt.Errorf("session: marshal request payload: %w", err)
	}

	_, err = s.pool.ExecContext(ctx, `
		INSERT INTO requests (id, session_id, sequence_number, message, payload)
		VALUES ($1, $2, $3, $4, $5)`,
		r.ID, r.SessionID, r.SequenceNumber, r.Message, payload)
	if err != nil {
		return fmt.Errorf("session: save request: %w", err)
	}
	return nil
}

// GetLatestRequest returns the most recently saved request for
// sessionID, including the constraints/profile it carried — used by
// POST /chat's edit-patch path to recover the constraints that
// produced the itinerary being edited.
func (s *Store) GetLatestRequest(ctx context.Context, sessionID string) (*RequestRecord, error) {
	var rec RequestRecord
	var payload []byte
	rec.SessionID = sessionID

	err := s.pool.QueryRowContext(ctx, `
		SELECT id, sequence_number, message, payload FROM requests
		WHERE session_id = $1
		ORDER BY sequence_number DESC LIMIT 1`,
		sessionID).Scan(&rec.ID, &rec.SequenceNumber, &rec.Message, &payload)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("session: get latest request: %w", err)
	}

	var decoded struct {
		Constraints *models.TripConstraints `json:"constraints,omitempty"`
		Profile     *models.UserProfile     `json:"profile,omitempty"`
	}
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, fmt.Errorf("session: unmarshal request payload: %w", err)
	}
	rec.Constraints = decoded.Constraints
	rec.Profile = decoded.Profile
	return &rec, nil
}

// PlanRecord is what SavePlan persists once the orchestrator returns.
type PlanRecord struct {
	RequestID      string
	SessionID      string
	Status         string
	Itinerary      *models.Itinerary
	RunFingerprint models.RunFingerprint
}

// SavePlan persists the orchestrator's result, keyed by request ID so
// GET /plans/{request_id}/export can look it up directly.
func (s *Store) SavePlan(ctx context.Context, r PlanRecord) error {
	var itineraryJSON []byte
	var err error
	if r.Itinerary != nil {
		itineraryJSON, err = json.Marshal(r.Itinerary)
		if err != nil {
			return fmt.Errorf("session: marshal itinerary: %w", err)
		}
	}

	fingerprintJSON, err := json.Marshal(r.RunFingerprint)
	if err != nil {
		return fmt.Errorf("session: marshal run fingerprint: %w", err)
	}

	_, err = s.pool.ExecContext(ctx, `
		INSERT INTO plans (request_id, session_id, status, itinerary, run_fingerprint)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (request_id) DO UPDATE SET
			status = EXCLUDED.status, itinerary = EXCLUDED.itinerary, run_fingerprint = EXCLUDED.run_fingerprint`,
		r.RequestID, r.SessionID, r.Status, nullableJSON(itineraryJSON), fingerprintJSON)
	if err != nil {
		return fmt.Errorf("session: save plan: %w", err)
	}
	return nil
}

// GetPlan loads the persisted plan for requestID, for /export and for
// edit-patch requests to resolve the prior itinerary.
func (s *Store) GetPlan(ctx context.Context, requestID string) (*PlanRecord, error) {
	var rec PlanRecord
	var itineraryJSON []byte
	var fingerprintJSON []byte
	rec.RequestID = requestID

	err := s.pool.QueryRowContext(ctx, `
		SELECT session_id, status, itinerary, run_fingerprint FROM plans WHERE request_id = $1`,
		requestID).Scan(&rec.SessionID, &rec.Status, &itineraryJSON, &fingerprintJSON)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("session: get plan: %w", err)
	}

	if len(itineraryJSON) > 0 {
		var it models.Itinerary
		if err := json.Unmarshal(itineraryJSON, &it); err != nil {
			return nil, fmt.Errorf("session: unmarshal itinerary: %w", err)
		}
		rec.Itinerary = &it
	}
	if err := json.Unmarshal(fingerprintJSON, &rec.RunFingerprint); err != nil {
		return nil, fmt.Errorf("session: unmarshal run fingerprint: %w", err)
	}
	return &rec, nil
}

// arenaArtifactKind tags the artifact row holding a plan's candidate
// pool, so an edit-patch request can rebuild the same Arena the
// original plan scheduled from without re-running Retrieve.
const arenaArtifactKind = "arena"

// SaveArena persists the candidate pool behind a plan as an artifact,
// since models.Arena itself doesn't round-trip through JSON (its
// index is unexported) — only the flat POI list does.
func (s *Store) SaveArena(ctx context.Context, requestID string, arena *models.Arena) error {
	payload, err := json.Marshal(arena.All())
	if err != nil {
		return fmt.Errorf("session: marshal arena: %w", err)
	}
	_, err = s.pool.ExecContext(ctx, `
		INSERT INTO artifacts (id, request_id, kind, payload) VALUES ($1, $2, $3, $4)`,
		uuid.NewString(), requestID, arenaArtifactKind, payload)
	if err != nil {
		return fmt.Errorf("session: save arena artifact: %w", err)
	}
	return nil
}

// GetArena loads the most recently saved candidate pool for requestID.
func (s *Store) GetArena(ctx context.Context, requestID string) (*models.Arena, error) {
	var payload []byte
	err := s.pool.QueryRowContext(ctx, `
		SELECT payload FROM artifacts
		WHERE request_id = $1 AND kind = $2
		ORDER BY created_at DESC LIMIT 1`,
		requestID, arenaArtifactKind).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("session: get arena artifact: %w", err)
	}

	var pois []*models.POI
	if err := json.Unmarshal(payload, &pois); err != nil {
		return nil, fmt.Errorf("session: unmarshal arena artifact: %w", err)
	}
	return models.NewArena(pois), nil
}

// HistoryEntry is one row of a session's request/plan history.
type HistoryEntry struct {
	RequestID string
	Message   string
	Status    string
	CreatedAt time.Time
}

// History returns up to limit most recent requests for sessionID,
// newest first, per GET /sessions/{id}/history.
func (s *Store) History(ctx context.Context, sessionID string, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.QueryContext(ctx, `
		SELECT r.id, r.message, COALESCE(p.status, 'pending'), r.created_at
		FROM requests r
		LEFT JOIN plans p ON p.request_id = r.id
		WHERE r.session_id = $1
		ORDER BY r.created_at DESC
		LIMIT $2`,
		sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("session: history query: %w", err)
	}
	defer rows.Close()

	var out []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(&e.RequestID, &e.Message, &e.Status, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("session: history scan: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ListSessions returns up to limit most recently active session IDs.
func (s *Store) ListSessions(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.QueryContext(ctx,
		`SELECT id FROM sessions ORDER BY last_active_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("session: list sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("session: list sessions scan: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ErrNotFound is returned when a lookup by ID matches no row.
var ErrNotFound = fmt.Errorf("session: not found")

func nullableJSON(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return b
}
