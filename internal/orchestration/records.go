package orchestration

import (
	"github.com/agbru/fibeval/internal/cli"
	"github.com/agbru/fibeval/pkg/models"
)

// ToRecords converts results to their JSON form. A success whose value
// differs from the first successful result is marked as a mismatch.
func ToRecords(results []EvaluationResult, n uint64, hexOutput bool) []models.EvaluationRecord {
	records := make([]models.EvaluationRecord, 0, len(results))
	var reference *EvaluationResult
	for i := range results {
		r := &results[i]
		rec := models.NewEvaluationRecord(r.Name, n, r.Elapsed)
		rec.Digits = r.Digits
		switch {
		case r.Err != nil:
			rec.Status = models.StatusError
			rec.Error = r.Err.Error()
		default:
			rec.Result = cli.FormatQuietResult(r.Value, hexOutput)
			rec.BitLength = r.Value.BitLen()
			if reference == nil {
				reference = r
			} else if r.Value.Cmp(reference.Value) != 0 {
				rec.Status = models.StatusMismatch
			}
		}
		records = append(records, rec)
	}
	return records
}
