// Command flatmem exercises the flatmem containers: it profiles allocation
// behaviour under the available allocators and traces copy-on-write slicing.
package main

func main() {
	Execute()
}
