// Package auth provides request authentication for the rechner
// service using a chain of authenticators with three-outcome voting
// (Yes / No / Abstain), plus HTTP middleware and an in-process rate
// limiter keyed by service tier.
package auth
