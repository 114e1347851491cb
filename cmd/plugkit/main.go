// Package main provides the plugkit CLI for working with plugin and
// package manifests.
package main

func main() {
	Execute()
}
