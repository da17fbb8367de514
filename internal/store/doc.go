// Package store persists stipple results in SQLite so repeated requests for
// the same image and parameters are answered without rerunning relaxation.
//
// Keys combine the SHA-256 digest of the encoded image with the parameters
// that affect the result. Values are JSON-encoded stipple.Result records.
// The store uses the pure-Go modernc.org/sqlite driver over a single
// connection.
package store
