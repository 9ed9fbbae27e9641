// Package retention prunes old run records.
//
// Records older than RetentionDays are deleted, then the oldest records past
// MaxRecords. Either limit may be zero to disable it. Pruned records can be
// archived to a JSON file first. In watch mode the Scheduler runs the pruner
// on a cron schedule such as "0 3 * * *" (daily at 3 AM).
package retention
