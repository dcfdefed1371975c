// Package cleaner coordinates a duplicate scan from catalog listing to the
// recycle bin.
//
// A Cleaner owns the current result list and the scan progress. Only one
// scan runs at a time: Scan supersedes a scan already in flight by
// cancelling it, while StartScan refuses to start when one is running.
// Progress values from the detector are forwarded to SubscribeProgress
// channels.
//
// When the recycle bin reports a restore the Cleaner schedules a new scan so
// the restored item is considered again. Restores arriving during a scan
// collapse into one follow-up scan.
package cleaner
