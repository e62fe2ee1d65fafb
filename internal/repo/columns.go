package repo

import (
	"fmt"

	"github.com/shaiso/import-worker/internal/domain"
)

// phaseColumns — колонки таблиц, относящиеся к фазе.
//
// Имена колонок подставляются в SQL напрямую, поэтому берутся только
// из этого switch, никогда из пользовательского ввода.
type phaseColumns struct {
	rowFlag   string // import_row
	startTime string // import
	initiator string // import
}

func columnsFor(phase domain.Phase) (phaseColumns, error) {
	switch phase {
	case domain.PhaseValidation:
		return phaseColumns{
			rowFlag:   "validated",
			startTime: "validation_start_time",
			initiator: "uploaded_by_user",
		}, nil
	case domain.PhaseProcessing:
		return phaseColumns{
			rowFlag:   "processed",
			startTime: "processing_start_time",
			initiator: "processed_by_user",
		}, nil
	default:
		return phaseColumns{}, fmt.Errorf("%w: %s", ErrUnknownPhase, phase)
	}
}
