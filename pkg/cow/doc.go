// Package cow provides copy-on-write views over slices and strings.
//
// A FlatCow starts out borrowing a window of a caller's buffer. Narrowing
// the window is free; the first request for mutable access copies the
// window into a buffer the FlatCow owns. CowBuf and StrBuf stage a window
// one element at a time, so a scanner can mark out a token in its input and
// only copy when the token has to differ from the input.
package cow
