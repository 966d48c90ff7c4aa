package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/hendripermana/uiwatch/internal/events"
)

// fieldPathArray converts a dotted payload path to the text[] form expected
// by the jsonb #>> operator.
func fieldPathArray(path string) any {
	return pq.Array(strings.Split(path, "."))
}

// CountMatching counts events of a kind whose payload field equals the given
// value, created at or after the cutoff. Used for "N similar errors in
// window" checks.
func (s *Store) CountMatching(ctx context.Context, kind events.Kind, fieldPath, fieldValue string, since time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM monitoring_events
		WHERE kind = $1
		  AND payload #>> $2 = $3
		  AND created_at >= $4
	`
	var count int
	err := s.conn.QueryRowContext(ctx, query, kind.String(), fieldPathArray(fieldPath), fieldValue, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count matching events: %w", err)
	}
	return count, nil
}

// GroupAverage averages a numeric payload field per group value for events of
// a kind created at or after the cutoff. Rows whose value field is absent or
// non-numeric are skipped.
func (s *Store) GroupAverage(ctx context.Context, kind events.Kind, groupPath, valuePath string, since time.Time) (map[string]float64, error) {
	query := `
		SELECT payload #>> $2 AS grp, AVG((payload #>> $3)::numeric) AS avg_value
		FROM monitoring_events
		WHERE kind = $1
		  AND created_at >= $4
		  AND payload #>> $2 IS NOT NULL
		  AND payload #>> $3 ~ '^-?[0-9]+(\.[0-9]+)?$'
		GROUP BY grp
	`
	rows, err := s.conn.QueryContext(ctx, query, kind.String(), fieldPathArray(groupPath), fieldPathArray(valuePath), since)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate events: %w", err)
	}
	defer rows.Close()

	result := make(map[string]float64)
	for rows.Next() {
		var group string
		var avg float64
		if err := rows.Scan(&group, &avg); err != nil {
			return nil, fmt.Errorf("failed to scan aggregation row: %w", err)
		}
		result[group] = avg
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate aggregation rows: %w", err)
	}
	return result, nil
}

// GroupCount counts events of a kind per group value for events created at or
// after the cutoff. Rows missing the group field are skipped.
func (s *Store) GroupCount(ctx context.Context, kind events.Kind, groupPath string, since time.Time) (map[string]int, error) {
	query := `
		SELECT payload #>> $2 AS grp, COUNT(*) AS event_count
		FROM monitoring_events
		WHERE kind = $1
		  AND created_at >= $3
		  AND payload #>> $2 IS NOT NULL
		GROUP BY grp
	`
	rows, err := s.conn.QueryContext(ctx, query, kind.String(), fieldPathArray(groupPath), since)
	if err != nil {
		return nil, fmt.Errorf("failed to count grouped events: %w", err)
	}
	defer rows.Close()

	result := make(map[string]int)
	for rows.Next() {
		var group string
		var count int
		if err := rows.Scan(&group, &count); err != nil {
			return nil, fmt.Errorf("failed to scan group count row: %w", err)
		}
		result[group] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate group count rows: %w", err)
	}
	return result, nil
}

// ListMatching returns events of a kind whose payload field equals the given
// value, created at or after the cutoff, most recent first.
func (s *Store) ListMatching(ctx context.Context, kind events.Kind, fieldPath, fieldValue string, since time.Time, limit int) ([]events.MonitoringEvent, error) {
	query := `
		SELECT event_id, kind, payload,
		       COALESCE(user_id, ''), COALESCE(session_id, ''),
		       COALESCE(addr, ''), COALESCE(user_agent, ''), created_at
		FROM monitoring_events
		WHERE kind = $1
		  AND payload #>> $2 = $3
		  AND created_at >= $4
		ORDER BY created_at DESC
		LIMIT $5
	`
	rows, err := s.conn.QueryContext(ctx, query, kind.String(), fieldPathArray(fieldPath), fieldValue, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list matching events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// Recent returns the most recently created events, newest first. An empty
// kind matches all kinds.
func (s *Store) Recent(ctx context.Context, kind events.Kind, limit int) ([]events.MonitoringEvent, error) {
	query := `
		SELECT event_id, kind, payload,
		       COALESCE(user_id, ''), COALESCE(session_id, ''),
		       COALESCE(addr, ''), COALESCE(user_agent, ''), created_at
		FROM monitoring_events
		WHERE ($1 = '' OR kind = $1)
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := s.conn.QueryContext(ctx, query, kind.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

type eventRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanEvents(rows eventRows) ([]events.MonitoringEvent, error) {
	var result []events.MonitoringEvent
	for rows.Next() {
		var ev events.MonitoringEvent
		var kind string
		if err := rows.Scan(
			&ev.EventID,
			&kind,
			&ev.Payload,
			&ev.UserID,
			&ev.SessionID,
			&ev.Addr,
			&ev.UserAgent,
			&ev.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}
		ev.Kind = events.Kind(kind)
		result = append(result, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate event rows: %w", err)
	}
	return result, nil
}
