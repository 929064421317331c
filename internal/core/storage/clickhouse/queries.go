package clickhouse

// SQL for the columnar events table. Placeholders are bound client-side by the driver.

const (
	queryCreateEventsTable = `
		CREATE TABLE IF NOT EXISTS events (
			user_id String,
			occurred_at DateTime64(6, 'UTC'),
			event_type LowCardinality(String),
			properties String
		) ENGINE = MergeTree
		ORDER BY (occurred_at)
	`

	// queryWatermark reports the row count alongside max(occurred_at) because max
	// over an empty MergeTree table yields the type default, not NULL.
	queryWatermark = `
		SELECT count() AS rows, max(occurred_at) AS watermark
		FROM events
	`

	queryInsertEvent = `INSERT INTO events (user_id, occurred_at, event_type, properties)`

	queryDailyActiveUsers = `
		SELECT toDate(occurred_at, 'UTC') AS day, uniqExact(user_id) AS dau
		FROM events
		WHERE occurred_at >= ?
		  AND occurred_at < ?%s
		GROUP BY day
		ORDER BY day ASC
	`

	queryTopEvents = `
		SELECT event_type, count() AS cnt
		FROM events
		WHERE occurred_at >= ?
		  AND occurred_at < ?
		GROUP BY event_type
		ORDER BY cnt DESC, event_type ASC
		LIMIT ?
	`

	queryRetention = `
		SELECT dateDiff('day', toDate(?), toDate(occurred_at, 'UTC')) AS win, uniqExact(user_id) AS active_users
		FROM events
		WHERE occurred_at >= ?
		  AND occurred_at < ?
		GROUP BY win
		ORDER BY win ASC
	`
)
