// Package list implements the filter, sort, paginate and select pipeline
// shared by every table in the dashboard.
//
// A Controller holds one table's state and the raw records it was last given.
// Derive turns the two into the visible window:
//
//	records -> Filtered (AND of active filters)
//	        -> Sorted   (stable, by one column)
//	        -> Page     (Sorted[(page-1)*size : page*size])
//
// Controllers never fetch. The host hands them records with ReplaceRecords,
// or with ReplacePage when the server already filtered and paged the data.
package list
