// Package store reads and writes contact tables as CSV files.
//
// Files carry a UTF-8 byte order mark so spreadsheet applications open
// umlauts correctly. Columns are addressed by header name, so extra
// columns and reordered columns in input files are tolerated; only the
// start_url column is required.
//
// Typical flow:
//
//	original, err := store.ReadFile("contacts.csv")
//	seeds := store.StartURLs(original)
//	// ... crawl ...
//	err = store.WriteFile("contacts_updated.csv", updated)
package store
