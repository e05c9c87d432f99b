package postgres

// SQL queries for entry segments and aggregate pages.

const (
	// queryAppendEntry adds one record to a segment.
	// seq is a BIGSERIAL so records load back in append order.
	queryAppendEntry = `
		INSERT INTO stat_entries (event_kind, bucket_index, payload)
		VALUES ($1, $2, $3)
	`

	queryLoadEntries = `
		SELECT payload
		FROM stat_entries
		WHERE event_kind = $1
		  AND bucket_index = $2
		ORDER BY seq ASC
	`

	queryRangePages = `
		SELECT page_no, payload
		FROM stat_pages
		WHERE event_kind = $1
		  AND aggregate_kind = $2
		  AND page_no >= $3
		  AND page_no <= $4
		ORDER BY page_no ASC
	`

	querySelectPageForUpdate = `
		SELECT payload
		FROM stat_pages
		WHERE event_kind = $1
		  AND aggregate_kind = $2
		  AND page_no = $3
		FOR UPDATE
	`

	queryUpsertPage = `
		INSERT INTO stat_pages (event_kind, aggregate_kind, page_no, payload, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (event_kind, aggregate_kind, page_no)
		DO UPDATE SET
			payload    = EXCLUDED.payload,
			updated_at = EXCLUDED.updated_at
	`
)
