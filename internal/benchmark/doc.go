// Package benchmark holds cross-package benchmarks for the runtime.
package benchmark
