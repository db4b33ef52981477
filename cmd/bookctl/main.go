// Command bookctl inspects a bookora document store from the terminal.
package main

func main() {
	Execute()
}
