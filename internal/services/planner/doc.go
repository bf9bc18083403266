// Package planner runs the cron-driven background maintenance for the
// scheduling core: a periodic availability digest over tracked resources and
// audit log retention. Jobs are executed by a small worker pool; the service
// supports live re-configuration via Apply().
package planner
