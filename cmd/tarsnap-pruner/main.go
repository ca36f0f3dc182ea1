// tarsnap-pruner thins out tarsnap archives with a grandfather-father-son policy.
//
// Every key file in the key directory is one machine. For each machine the
// archives are listed, classified by the date in their name and pruned so
// that every archive younger than the daily boundary survives, one per ISO
// week survives up to the weekly boundary, and one per calendar month beyond.
// Archives without a date in their name are always pruned.
//
// Usage:
//
//	# Prune once
//	tarsnap-pruner run --config /etc/tarsnap-pruner/config.yaml
//
//	# Show what would be deleted
//	tarsnap-pruner run --dry-run
//	tarsnap-pruner plan --machine web01
//
//	# Prune on a schedule, reloading the config on change or SIGHUP
//	tarsnap-pruner daemon
//
//	# Inspect past runs
//	tarsnap-pruner history --limit 20
package main

func main() {
	Execute()
}
