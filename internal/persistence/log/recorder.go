package log

import (
	stdlog "log"

	"tribalgrid.ai/internal/sim/world"
)

// Recorder bridges the sim's tick observer to the tick and audit logs. It
// copies everything out of the record before queuing writes, because the
// sim reuses the slices between ticks.
type Recorder struct {
	ticks  *TickLogger
	audit  *AuditLogger
	logger *stdlog.Logger
}

func NewRecorder(episodeDir string, logger *stdlog.Logger) *Recorder {
	return &Recorder{
		ticks:  NewTickLogger(episodeDir),
		audit:  NewAuditLogger(episodeDir),
		logger: logger,
	}
}

func (r *Recorder) ObserveTick(rec world.TickRecord) {
	te := TickEntry{
		Tick:    rec.Tick,
		Actions: make([]int, len(rec.Actions)),
		Digest:  rec.Digest,
	}
	for i, a := range rec.Actions {
		te.Actions[i] = int(a)
	}
	if err := r.ticks.WriteTick(te); err != nil {
		r.logger.Printf("[persist] tick log write: %v", err)
	}

	ae := AuditEntry{
		Tick:            rec.Tick,
		Outcomes:        make([][]int, len(rec.Outcomes)),
		StockpileDeltas: make([][]int32, len(rec.StockpileDeltas)),
	}
	for i, oc := range rec.Outcomes {
		row := make([]int, len(oc))
		for j, v := range oc {
			row[j] = int(v)
		}
		ae.Outcomes[i] = row
	}
	for i, d := range rec.StockpileDeltas {
		row := make([]int32, len(d))
		copy(row, d)
		ae.StockpileDeltas[i] = row
	}
	if err := r.audit.WriteAudit(ae); err != nil {
		r.logger.Printf("[persist] audit log write: %v", err)
	}
}

func (r *Recorder) Close() error {
	err1 := r.ticks.Close()
	err2 := r.audit.Close()
	if err1 != nil {
		return err1
	}
	return err2
}
