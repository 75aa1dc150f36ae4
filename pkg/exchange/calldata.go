package exchange

import "fmt"

// ReconcileCalldata merges desired into template in place, byte by byte:
// mask bits select bytes of desired that override template, zero mask bits
// leave template untouched. All three buffers must have the same length.
//
// This lets a template order ("buy any token from this collection") absorb
// the counterparty-specific bytes of a concrete counter-order; the engine
// requires both calldata buffers to be identical afterwards.
func ReconcileCalldata(template, desired, mask []byte) error {
	if len(template) != len(desired) || len(template) != len(mask) {
		return fmt.Errorf("%w: template %d, desired %d, mask %d",
			ErrLengthMismatch, len(template), len(desired), len(mask))
	}
	for i := range template {
		template[i] = (mask[i] & desired[i]) | (^mask[i] & template[i])
	}
	return nil
}
