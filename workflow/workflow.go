// Package workflow streams domains from a source through a trained
// classifier and publishes the enriched results to a destination, batch by
// batch, until the source drains or the context is cancelled.
package workflow

import (
	"context"
	"io"
	"strconv"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Enriched is one scored domain on its way to the destination.
type Enriched struct {
	Domain string
	Score  float64 // probability the domain is benign
	Type   int     // predicted class
}

// Line renders the record in the delimited wire form domain, score, type.
func (e Enriched) Line(delim string) string {
	return e.Domain + delim + strconv.FormatFloat(e.Score, 'f', 6, 64) + delim + strconv.Itoa(e.Type)
}

// Source yields batches of domains. A drained source returns io.EOF; an empty
// batch with a nil error means nothing arrived yet and the caller should poll
// again.
type Source interface {
	ReadBatch(ctx context.Context) ([]string, error)
	Close() error
}

// Destination receives enriched batches.
type Destination interface {
	WriteBatch(ctx context.Context, recs []Enriched) error
	Close() error
}

// Classifier scores a slice of domains, index-aligned with the input.
type Classifier interface {
	Predict(domains []string) (types []int, scores []float64)
}

// Workflow ties a source, a classifier and a destination together.
type Workflow struct {
	name string
	src  Source
	dst  Destination
	cls  Classifier
	log  *zap.Logger
}

// New assembles a workflow. The caller keeps ownership of the source and
// destination and closes them after Run returns.
func New(name string, src Source, dst Destination, cls Classifier, log *zap.Logger) *Workflow {
	return &Workflow{name: name, src: src, dst: dst, cls: cls, log: log}
}

// Run pumps batches until the source reports io.EOF or ctx is cancelled.
// Every batch is scored and written before the next one is read.
func (w *Workflow) Run(ctx context.Context) error {
	var batches, domains int
	w.log.Info("workflow started", zap.String("workflow", w.name))

	for {
		if err := ctx.Err(); err != nil {
			w.logTotals(batches, domains)
			return err
		}

		batch, err := w.src.ReadBatch(ctx)
		if errors.Is(err, io.EOF) {
			w.logTotals(batches, domains)
			return nil
		}
		if err != nil {
			return errors.Wrapf(err, "workflow %s: reading batch", w.name)
		}
		if len(batch) == 0 {
			continue
		}

		types, scores := w.cls.Predict(batch)
		recs := make([]Enriched, len(batch))
		for i, domain := range batch {
			recs[i] = Enriched{Domain: domain, Score: scores[i], Type: types[i]}
		}
		if err := w.dst.WriteBatch(ctx, recs); err != nil {
			return errors.Wrapf(err, "workflow %s: writing batch", w.name)
		}

		batches++
		domains += len(batch)
		w.log.Debug("batch enriched",
			zap.String("workflow", w.name),
			zap.Int("size", len(batch)))
	}
}

func (w *Workflow) logTotals(batches, domains int) {
	w.log.Info("workflow finished",
		zap.String("workflow", w.name),
		zap.Int("batches", batches),
		zap.Int("domains", domains))
}
