// Package lebytes turns flatmem arrays into little-endian byte layouts and
// back.
//
// The fixed-width helpers cover single numbers and arrays of numbers. Codec
// handles flat structs whose fields are numbers, bools, strings or slices
// of those. The layout is meant for buffers that stay inside one process;
// nothing here promises it stays stable across versions.
package lebytes
