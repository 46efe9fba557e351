// Package database provides the data access layer for the application.
//
// # Architecture
//
//	database/
//	├── database.go      # Connection setup (sqlite|postgres), migrations,
//	│                    # scoped connection and transaction helpers
//	├── books/           # Books, pages, shared records and comments
//	├── activity/        # The append-only log: students and reading events
//	├── audit/           # Import and login audit events
//	└── users/           # Local accounts for the signed-cookie auth policy
//
// # Scoped Connections
//
// Every request borrows exactly one connection and hands it back when the
// unit of work ends, whatever the outcome:
//
//	err := db.WithConn(ctx, func(tx *gorm.DB) error {
//		view, err := books.NewRepository(tx).GetBySlug(slug)
//		...
//	})
//
// Multi-statement writes (book import) use WithTx instead.
//
// Repositories take a *gorm.DB so they work the same on a pooled handle, a
// dedicated connection or a transaction.
package database
