// Package alloc provides the raw byte allocators behind flatmem buffers.
//
// An Allocator hands out zeroed, contiguous regions and takes them back
// exactly once. Regions freed by an allocator that does not use the Go heap
// (Mmap, and Pool on top of it) are unmapped: touching one afterwards faults.
// Only pointer-free element types are ever placed in allocator memory.
package alloc
