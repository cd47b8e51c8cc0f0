// Package automerge approves and merges pull requests of a single author
// when GitHub reports them as mergeable.
//
// The processing of an event is split into stages, each stage can end the
// processing:
//
// - the author gate compares the login of the user that triggered the event
// with the configured login, no GitHub API call is done if they differ,
//
// - the current state of the pull request is fetched from GitHub,
//
// - Evaluate decides if the pull request is eligible for being merged,
//
// - SelectOperation decides if the pull request is approved and merged or
// only merged. Pull requests that were already reviewed are not approved
// again,
//
// - the Retryer runs the merge operation and retries it with a quadratic
// backoff when it fails. Merges commonly fail when the base branch changed
// while the pull request was processed.
//
// Skipping a pull request is not an error, the reason is logged.
// Only an error of the final merge attempt is returned to the caller.
package automerge
