// Package pgrun resolves, sanitizes, and connects to a PostgreSQL database,
// then executes single statements with automatic retry on transient
// connection failures.
//
// A DB is built once at process start and reused for the process lifetime:
//
//	ctx := context.Background()
//	database, err := pgrun.Open(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer database.Close()
//
//	result, err := database.ExecuteStandard(ctx,
//	    "SELECT id, title FROM artworks WHERE artist = @artist",
//	    map[string]any{"artist": "Vermeer"})
//
// Open reads the connection string from DATABASE_URL (or SUPABASE_DB_URL),
// normalizes it (driver qualification, spurious-trailing-slash removal,
// guaranteed sslmode) and configures either a bounded connection pool or a
// connect-per-statement runner (DB_USE_NULLPOOL, default on; mandatory when
// an external pooler such as PgBouncer already multiplexes connections).
//
// ExecuteStandard retries transient connection failures up to 3 attempts
// with exponential backoff starting at 1s; ExecuteFast is the
// latency-sensitive profile with 2 attempts starting at 0.5s. Statement
// errors and non-transient connection errors are never retried and are
// returned to the caller unchanged.
package pgrun
