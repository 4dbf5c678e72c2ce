// Package jobs persists processing jobs and runs them on a worker pool.
//
// A job moves through pending, then extracting (uploads only), then
// processing, and ends completed, failed or aborted. The terminal states
// are final: once a job is aborted no worker can move it anywhere else.
package jobs
