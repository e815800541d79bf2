// Package grid defines the minimal worksheet access contract the storage engine
// needs from its backend, along with the backends that implement it.
//
// # Backends
//
// Every backend implements Port and is opened once by the hosting process,
// handed to the repository, and closed at shutdown:
//
//   - Workbook: a local .xlsx file read and written with excelize. Each
//     mutation is saved individually unless AutoSave is disabled.
//   - SQLite: one table row per populated cell.
//   - Postgres: the same layout on a pgx pool.
//   - GoogleSheets: a remote spreadsheet addressed by its document URL.
//   - Memory: process-local maps, for tests and dry runs.
//
// None of the backends expose transactions to callers. Two writers racing on
// the same worksheet interleave cell by cell.
package grid
