// Package evaluation gates worker output behind a quality check.
//
// A Judge scores a (task, output) pair; the Gate turns the score into
// an accept/reject verdict against a configured threshold and carries
// the judge's critique back for the bounded retry. The LLM-backed judge
// delegates scoring to a completion provider and parses its JSON
// verdict; deterministic judges are trivial to plug in for tests.
package evaluation
