// Package datasets implements the shared dataset types for domain classification.
package datasets

// Domain type labels. The convention follows the feeds: an algorithmically
// generated domain is type 0, a benign domain is type 1.
const (
	TypeDGA    = 0
	TypeBenign = 1
)

// Record is one labeled domain name.
type Record struct {
	Domain string
	Type   int
}

// Batch is an ordered group of records processed together.
type Batch []Record

// Domains returns the domain names of the batch, in order.
func (b Batch) Domains() []string {
	out := make([]string, len(b))
	for i, r := range b {
		out[i] = r.Domain
	}
	return out
}

// Types returns the type labels of the batch, in order.
func (b Batch) Types() []int {
	out := make([]int, len(b))
	for i, r := range b {
		out[i] = r.Type
	}
	return out
}

// Len returns the total number of records across batches.
func Len(batches []Batch) (n int) {
	for _, b := range batches {
		n += len(b)
	}
	return
}

// Partition splits records into ordered batches of at most size records each.
// The final batch may be short. Partitions are built once and reused across
// epochs, so the record order inside them is stable.
func Partition(records []Record, size int) []Batch {
	if size <= 0 || len(records) == 0 {
		return nil
	}
	batches := make([]Batch, 0, (len(records)+size-1)/size)
	for start := 0; start < len(records); start += size {
		end := start + size
		if end > len(records) {
			end = len(records)
		}
		batches = append(batches, Batch(records[start:end]))
	}
	return batches
}
