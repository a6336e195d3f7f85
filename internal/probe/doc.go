// Package probe implements the raw-socket request primitive used by sockprobe.
//
// A probe opens one TCP connection, writes a fixed HTTP/1.1 request in a single
// send, performs one bounded read of the response and closes the connection:
//
//	client := probe.NewClient(probe.DefaultRequest())
//	resp, err := client.Probe(ctx, probe.Target{Host: "localhost", Port: 8080, Timeout: 2 * time.Second})
//
// The first read is authoritative. The response is not parsed or validated and may
// be a truncated HTTP response if the server sends more than [DefaultBufferSize]
// bytes.
//
// # Errors
//
// Every failure (refused connection, timeout, resolution failure, reset, short
// write) is reported as a [*ConnectionError] carrying the phase it happened in and
// the underlying cause:
//
//	var connErr *probe.ConnectionError
//	if errors.As(err, &connErr) && connErr.Timeout() {
//		// deadline expired while connecting, sending or receiving
//	}
package probe
