// Package model defines the data structures shared by the proxy checker.
//
// This package contains the following main types:
//   - ProxyDescriptor: A parsed candidate proxy line
//   - Failure: Why a candidate was rejected
//   - ProbeOutcome: The result of validating one candidate
//   - ValidationReport: The aggregated result of a validation round
//
// Models live in their own package so that probe, pipeline and report can
// all use them without import cycles. They encode to JSON for report output
// and run history.
package model
