// Package upload implements the chunked media upload protocol.
//
// A local file goes through INIT, one APPEND per chunk (segment_index 0..n-1)
// and FINALIZE; a remote gif URL skips straight from INIT to polling because
// the server fetches it. While the server returns processing_info the
// pipeline sleeps check_after_secs and asks for STATUS until the state is
// succeeded or failed.
//
// Type and size are validated before any request is made. Only the STATUS
// loop repeats requests; any other failure aborts the upload.
package upload
