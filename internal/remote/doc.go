// Package remote implements the client for the sheet-backed store that
// holds the unit's authoritative data.
//
// The backend is a spreadsheet fronted by a thin script endpoint. It
// exposes coarse actions rather than REST resources, addressed by sheet
// name and row id, and is treated as an opaque, eventually-consistent
// document store.
//
// # Protocol
//
// Reads are HTTP GET with query-string parameters; writes are HTTP POST
// with a JSON body sent as text/plain. Both shapes exist to keep the
// endpoint reachable from constrained clients without CORS preflight,
// and the wire format is preserved here so one backend serves every
// client. Every response is a JSON envelope:
//
//	{ "status": "success" | "error", "data": ..., "message": "..." }
//
// The envelope is validated at this boundary. A body that is not JSON
// (commonly an HTML error page from the hosting layer) is a protocol
// failure; a well-formed envelope with status "error" carries the
// server's message; list payloads of null or a non-array decode to an
// empty list, and individual rows that fail to decode are dropped with
// a log line rather than failing the batch.
//
// # Usage
//
//	client, err := remote.New(remote.Config{
//	    URL:     "https://script.example.com/exec",
//	    Timeout: 15 * time.Second,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	acts, err := client.FetchActivities(ctx)
//
// # Errors
//
// Failures are classified into three kinds, checked with errors.Is or
// the IsTransport/IsProtocol/IsApplication helpers. Callers decide
// presentation; this package never retries.
package remote
