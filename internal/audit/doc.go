// Package audit relays events to a consumer off the request path.
//
// A [Dispatcher] owns one buffered channel and one worker goroutine. Producers never
// block: a full buffer drops the event and bumps a counter. The package does not
// decide what to emit or where events end up; callers pass the delivery function.
package audit
