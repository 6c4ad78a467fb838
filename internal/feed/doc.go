// Package feed implements the upstream market-data client.
//
// The client:
//   - Fetches the whole configured coin set in one request per cycle
//   - Retries transport and upstream (5xx/4xx non-429) failures with a
//     fixed delay between attempts
//   - Treats HTTP 429 as a signal to abstain for the rest of the cycle
//     rather than compounding backoff against a throttling upstream
package feed
