package internal

import (
	// Blank imports register the database drivers the sql scheduler
	// driver can be configured with.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
)
