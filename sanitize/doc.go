// Package sanitize rewrites terms in a fine-tuning dataset that tend to trip
// provider content moderation.
//
// The dataset is JSON Lines, one training example per line, each with a
// "messages" array whose "content" strings are rewritten: "luxo" becomes
// "exclusivo", "premium" becomes "superior", "luxury" becomes "exclusive", and
// "acabamentos de luxo" becomes "acabamentos exclusivos". The package shares no
// code or state with the embedding synchronization packages.
package sanitize
