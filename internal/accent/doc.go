// Package accent maps speech-service locale tags to English accent labels.
//
// The mapping is a fixed table built once at package initialization and never
// mutated afterwards. Classify is a pure function of its inputs: it performs
// no I/O, reads no clock, and returns a comparable Result so identical inputs
// produce identical values. Locales absent from the table are reported as
// unmapped with a generic label instead of an error.
package accent
