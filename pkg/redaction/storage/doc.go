// Package storage provides the store backends used by the redactor.
//
// # Backends
//
//   - MongoStorage: the production layout. Membership documents and
//     location samples live in the member database, event records in the
//     logger database.
//   - SQLiteStorage: embedded single-file store. Works with either the cgo
//     driver ("sqlite3") or the pure Go driver ("sqlite").
//   - MemoryStorage: in-process store for tests and dry runs.
//   - PolicyFile: a read-only UserStore backed by a YAML file, reloaded on
//     change.
//
// Every backend applies the same query semantics: timestamp bounds are
// exclusive, datum types are compared in their stored uppercase form and
// results are ordered by ascending timestamp.
//
// # Basic Usage
//
//	store, err := storage.NewSQLiteStorage(&storage.SQLiteConfig{
//	    Path:   "data/redactor.db",
//	    Driver: "sqlite",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	n, err := store.Delete(ctx, redaction.NewEventQuery(email, "wifi", iv))
//
// Errors are returned as *redaction.StorageError.
package storage
