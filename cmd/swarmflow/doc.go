// Command swarmflow runs delegation requests against a worker tree.
//
// Usage:
//
//	swarmflow run --task "..." [--config config.yaml]   # drive one request
//	swarmflow validate --tree swarm.yaml                # check a tree file
//	swarmflow trail --id <request-id>                   # print a stored event trail
//	swarmflow version                                   # show build info
package main
