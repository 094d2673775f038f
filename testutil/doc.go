// Package testutil provides shared helpers for swarmflow tests:
// context builders that clean up after themselves, plus the mocks and
// fixtures subpackages with scripted providers, executors, judges, and
// prebuilt worker trees.
package testutil
