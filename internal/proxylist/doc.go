// Package proxylist reads candidate proxy lists and writes accepted ones.
//
// The file format is one proxy per line, host:port or host:port:user:pass.
// Lines starting with # are comments.
package proxylist
