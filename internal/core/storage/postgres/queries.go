package postgres

// SQL queries for the events table.

const (
	// querySaveEvent inserts one event keyed by event_id.
	// ON CONFLICT DO NOTHING returns no rows (sql.ErrNoRows) for duplicates, including
	// rows committed by a concurrent transaction after this one started.
	querySaveEvent = `
		INSERT INTO events (event_id, occurred_at, user_id, event_type, properties)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (event_id) DO NOTHING
		RETURNING event_id
	`

	// queryRetrieveEventsAfter selects everything strictly newer than the sync watermark.
	queryRetrieveEventsAfter = `
		SELECT event_id, occurred_at, user_id, event_type, properties
		FROM events
		WHERE occurred_at > $1
		ORDER BY occurred_at ASC, event_id ASC
	`

	queryDailyActiveUsers = `
		SELECT (occurred_at AT TIME ZONE 'UTC')::date AS day, COUNT(DISTINCT user_id) AS dau
		FROM events
		WHERE occurred_at >= $1
		  AND occurred_at < $2%s
		GROUP BY day
		ORDER BY day ASC
	`

	queryTopEvents = `
		SELECT event_type, COUNT(*) AS cnt
		FROM events
		WHERE occurred_at >= $1
		  AND occurred_at < $2
		GROUP BY event_type
		ORDER BY cnt DESC, event_type ASC
		LIMIT $3
	`

	// queryRetention buckets activity by whole UTC days since the start date.
	queryRetention = `
		SELECT (occurred_at AT TIME ZONE 'UTC')::date - $3::date AS win, COUNT(DISTINCT user_id) AS active_users
		FROM events
		WHERE occurred_at >= $1
		  AND occurred_at < $2
		GROUP BY win
		ORDER BY win ASC
	`
)
