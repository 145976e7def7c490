// Package dedupe remembers form submit tokens for a short window so a
// resubmitted turn is not run twice.
package dedupe
