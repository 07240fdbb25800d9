// Package main provides the entry point for the proxycheck CLI.
//
// proxycheck reads a list of candidate proxies, sends a real request
// through each of them over a bounded worker pool, and writes the ones
// that answered to an output file.
//
// Usage:
//
//	proxycheck check proxies.txt working.txt
//	proxycheck check --https-only -w 50 proxies.txt working.txt
//
// See --help for all available options.
package main

func main() {
	Execute()
}
